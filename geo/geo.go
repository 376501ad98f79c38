package geo

import (
	"math"
)

var (
	R          = 6373000.0 // approximate radius of earth in meters
	TO_RADIANS = math.Pi / 180
	TO_DEGREES = 180 / math.Pi
)

func Dot(ax float64, ay float64, bx float64, by float64) float64 {
	return (ax * bx) + (ay * by)
}

// arguments should be in radians
func DistanceToPoint(ax float64, ay float64, bx float64, by float64) float64 {
	a := math.Sin((bx-ax)/2)*math.Sin((bx-ax)/2) + math.Cos(ax)*math.Cos(bx)*math.Sin((by-ay)/2)*math.Sin((by-ay)/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c // in metres
}

// Distance is the great-circle distance in meters between two points
// given in degrees.
func Distance(latA float64, lonA float64, latB float64, lonB float64) float64 {
	return DistanceToPoint(latA*TO_RADIANS, lonA*TO_RADIANS, latB*TO_RADIANS, lonB*TO_RADIANS)
}

func Vector(latA float64, lonA float64, latB float64, lonB float64) (float64, float64) {
	dlon := lonB - lonA
	x := math.Sin(dlon) * math.Cos(latB)
	y := math.Cos(latA)*math.Sin(latB) - (math.Sin(latA) * math.Cos(latB) * math.Cos(dlon))
	return x, y
}

// Bearing is the initial bearing in radians from point A to point B,
// arguments in degrees.
func Bearing(latA float64, lonA float64, latB float64, lonB float64) float64 {
	latA = latA * TO_RADIANS
	latB = latB * TO_RADIANS
	lonA = lonA * TO_RADIANS
	lonB = lonB * TO_RADIANS
	x, y := Vector(latA, lonA, latB, lonB)
	return math.Atan2(x, y)
}
