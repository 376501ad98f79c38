package settings

import (
	"testing"

	"fieldmap.dev/fieldmapd/params"
)

func newTestStore(t *testing.T) *params.Store {
	t.Helper()
	store, err := params.Open(t.TempDir())
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	return store
}

func TestLoadWithoutStoredSettingsUsesDefaults(t *testing.T) {
	store := newTestStore(t)
	s := AppSettings{}
	if s.Load(store) {
		t.Fatalf("load reported success with nothing stored")
	}
	if s.TileSourceURL != REMOTE_DEMO_ARCHIVE {
		t.Fatalf("default url = %q", s.TileSourceURL)
	}
	if s.OfflineTilesEnabled {
		t.Fatalf("offline tiles should default off")
	}
	if !s.LayerVisibility["water"] {
		t.Fatalf("layers should default visible")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	s := AppSettings{}
	s.Default()
	s.OfflineTilesEnabled = true
	s.DarkTheme = true
	s.GpsTimeoutSeconds = 25
	s.LayerVisibility["labels"] = false
	s.Save(store)

	loaded := AppSettings{}
	if !loaded.Load(store) {
		t.Fatalf("load failed after save")
	}
	if !loaded.OfflineTilesEnabled || !loaded.DarkTheme {
		t.Fatalf("toggles lost: %+v", loaded)
	}
	if loaded.GpsTimeoutSeconds != 25 {
		t.Fatalf("gps timeout = %d", loaded.GpsTimeoutSeconds)
	}
	if loaded.LayerVisibility["labels"] {
		t.Fatalf("layer visibility lost")
	}
}

func TestPartialStoredSettingsKeepDefaults(t *testing.T) {
	store := newTestStore(t)
	err := store.Put(params.SETTINGS, []byte(`{"dark_theme": true}`))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}

	s := AppSettings{}
	if !s.Load(store) {
		t.Fatalf("load failed")
	}
	if !s.DarkTheme {
		t.Fatalf("stored field ignored")
	}
	if s.TileSourceURL != REMOTE_DEMO_ARCHIVE {
		t.Fatalf("missing fields not defaulted: %q", s.TileSourceURL)
	}
}

func TestGpsTimeoutGuardsNonPositive(t *testing.T) {
	s := AppSettings{GpsTimeoutSeconds: 0}
	if s.GpsTimeout().Seconds() != 10 {
		t.Fatalf("zero timeout not defaulted: %v", s.GpsTimeout())
	}
}
