package geo

import (
	"math"
	"testing"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	if d := Distance(39.87, -83.06, 39.87, -83.06); d != 0 {
		t.Fatalf("distance to self = %f", d)
	}
}

func TestDistanceKnownArc(t *testing.T) {
	// one degree along the equator is exactly R * pi/180
	want := R * math.Pi / 180
	got := Distance(0, 0, 0, 1)
	if math.Abs(got-want) > 1 {
		t.Fatalf("equator degree = %f, want %f", got, want)
	}
}

func TestDistanceSymmetric(t *testing.T) {
	a := Distance(39.87597128296241, -83.063094468947, 39.8743989043051, -83.0064776388221)
	b := Distance(39.8743989043051, -83.0064776388221, 39.87597128296241, -83.063094468947)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
	// this pair is roughly three miles apart
	if a < 4500 || a > 5200 {
		t.Fatalf("distance = %f, expected ~4828 meters", a)
	}
}

func TestBearingCardinal(t *testing.T) {
	north := Bearing(39.89058447975868, -83.02569199443768, 39.898404491651426, -83.02610011832185) * TO_DEGREES
	east := Bearing(39.97639072630465, -83.11918338645518, 39.97031064469578, -82.8450246292918) * TO_DEGREES
	if math.Abs(north) > 5 {
		t.Fatalf("northbound bearing = %f, want ~0", north)
	}
	if math.Abs(east-90) > 5 {
		t.Fatalf("eastbound bearing = %f, want ~90", east)
	}
}
