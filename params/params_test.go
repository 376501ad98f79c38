package params

import (
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	err := store.Put("SomeKey", []byte("value"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	data, err := store.Get("SomeKey")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(data) != "value" {
		t.Fatalf("got %q", data)
	}
}

func TestGetMissingKeyErrors(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get("Missing")
	if err == nil {
		t.Fatalf("expected an error for a missing key")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	err := store.Put("K", []byte("v"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		err := store.Delete("K")
		if err != nil {
			t.Fatalf("delete %d failed: %v", i, err)
		}
	}
	if store.Has("K") {
		t.Fatalf("key survived delete")
	}
}

func TestKeysSorted(t *testing.T) {
	store := newTestStore(t)
	for _, key := range []string{"b", "a", "c"} {
		if err := store.Put(key, []byte(key)); err != nil {
			t.Fatalf("put %s failed: %v", key, err)
		}
	}
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("keys failed: %v", err)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Fatalf("keys not sorted: %v", keys)
	}
}

func TestArchiveRecordRoundTrip(t *testing.T) {
	store := newTestStore(t)
	err := store.PutArchive([]byte{1, 2, 3}, "https://example.com/map.pmtiles")
	if err != nil {
		t.Fatalf("put archive failed: %v", err)
	}
	record, ok := store.GetArchive()
	if !ok {
		t.Fatalf("archive not found")
	}
	if len(record.Blob) != 3 || record.SourceURL != "https://example.com/map.pmtiles" {
		t.Fatalf("wrong record: %+v", record)
	}
	if !store.HasArchive() {
		t.Fatalf("HasArchive false after put")
	}
}

func TestLegacyBlobWithoutProvenance(t *testing.T) {
	store := newTestStore(t)
	// records written before provenance tracking are a bare blob
	err := store.Put(TILE_ARCHIVE, []byte("old blob"))
	if err != nil {
		t.Fatalf("put failed: %v", err)
	}
	record, ok := store.GetArchive()
	if !ok {
		t.Fatalf("legacy record not readable")
	}
	if record.SourceURL != "" {
		t.Fatalf("legacy record grew a source: %q", record.SourceURL)
	}
	if string(record.Blob) != "old blob" {
		t.Fatalf("legacy blob mangled: %q", record.Blob)
	}
}

func TestDeleteArchiveIdempotent(t *testing.T) {
	store := newTestStore(t)
	err := store.PutArchive([]byte("x"), "url")
	if err != nil {
		t.Fatalf("put archive failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.DeleteArchive(); err != nil {
			t.Fatalf("delete %d failed: %v", i, err)
		}
	}
	if store.HasArchive() {
		t.Fatalf("archive survived delete")
	}
	if _, ok := store.GetArchive(); ok {
		t.Fatalf("archive record still readable")
	}
}
