package basemap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

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

func archiveServer(t *testing.T, blob []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "map.pmtiles", time.Time{}, bytes.NewReader(blob))
	}))
}

func TestResolvePrefersOfflineCache(t *testing.T) {
	store := newTestStore(t)
	blob := testArchive(t, []string{"waterway"}, []byte("tile"))
	err := store.PutArchive(blob, "https://example.com/map.pmtiles")
	if err != nil {
		t.Fatalf("could not seed cache: %v", err)
	}

	resolver := &Resolver{
		Store:     store,
		Registry:  NewRegistry(),
		RemoteURL: "https://invalid.invalid/map.pmtiles",
	}
	desc, archive, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !desc.UsedOfflineCache {
		t.Fatalf("cache ignored: %+v", desc)
	}
	if desc.UsedLocal {
		t.Fatalf("remote provenance flagged local: %+v", desc)
	}
	if desc.SourceURL != "https://example.com/map.pmtiles" {
		t.Fatalf("wrong provenance: %q", desc.SourceURL)
	}
	if desc.Handle == "" {
		t.Fatalf("descriptor missing handle")
	}
	if got := archive.VectorLayerNames(); len(got) != 1 || got[0] != "waterway" {
		t.Fatalf("wrong archive bound: %v", got)
	}
}

func TestResolveLegacyCacheGetsOriginTag(t *testing.T) {
	store := newTestStore(t)
	blob := testArchive(t, []string{"waterway"}, []byte("tile"))
	err := store.Put(params.TILE_ARCHIVE, blob)
	if err != nil {
		t.Fatalf("could not seed legacy cache: %v", err)
	}

	resolver := &Resolver{Store: store, Registry: NewRegistry()}
	desc, _, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if desc.SourceURL != CACHE_ORIGIN {
		t.Fatalf("legacy record not tagged: %q", desc.SourceURL)
	}
	if !desc.UsedOfflineCache || !desc.UsedLocal {
		t.Fatalf("wrong flags for cache-origin record: %+v", desc)
	}
}

func TestResolveDisabledCacheFallsToLocalFile(t *testing.T) {
	store := newTestStore(t)
	blob := testArchive(t, []string{"waterway"}, []byte("tile"))
	err := store.PutArchive(blob, "https://example.com/map.pmtiles")
	if err != nil {
		t.Fatalf("could not seed cache: %v", err)
	}

	path := filepath.Join(t.TempDir(), "local.pmtiles")
	err = os.WriteFile(path, blob, 0o664)
	if err != nil {
		t.Fatalf("could not write local archive: %v", err)
	}

	resolver := &Resolver{
		Store:          store,
		Registry:       NewRegistry(),
		LocalPaths:     []string{"missing/nowhere.pmtiles", path},
		OfflineEnabled: func() bool { return false },
	}
	desc, _, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if desc.UsedOfflineCache {
		t.Fatalf("disabled cache still used: %+v", desc)
	}
	if !desc.UsedLocal || desc.SourceURL != path {
		t.Fatalf("local archive not picked: %+v", desc)
	}
}

func TestResolveFallsBackToRemote(t *testing.T) {
	blob := testArchive(t, []string{"transportation"}, []byte("tile"))
	server := archiveServer(t, blob)
	defer server.Close()

	resolver := &Resolver{
		Store:      newTestStore(t),
		Registry:   NewRegistry(),
		LocalPaths: []string{"missing/nowhere.pmtiles"},
		RemoteURL:  server.URL,
	}
	desc, archive, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if desc.UsedLocal || desc.UsedOfflineCache {
		t.Fatalf("remote fallback mis-flagged: %+v", desc)
	}
	if desc.SourceURL != server.URL {
		t.Fatalf("wrong source url: %q", desc.SourceURL)
	}
	names := archive.VectorLayerNames()
	if len(names) != 1 || names[0] != "transportation" {
		t.Fatalf("remote archive metadata not read: %v", names)
	}
}

func TestResolveProbesLocalHTTP(t *testing.T) {
	blob := testArchive(t, []string{"waterway"}, []byte("tile"))
	server := archiveServer(t, blob)
	defer server.Close()

	resolver := &Resolver{
		Store:      newTestStore(t),
		Registry:   NewRegistry(),
		LocalPaths: []string{server.URL + "/local.pmtiles"},
		RemoteURL:  "https://invalid.invalid/map.pmtiles",
	}
	desc, _, err := resolver.Resolve(context.Background())
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !desc.UsedLocal || desc.UsedOfflineCache {
		t.Fatalf("http probe mis-flagged: %+v", desc)
	}
}

func TestRegistryHandlesAreStablePerArchive(t *testing.T) {
	registry := NewRegistry()
	blob := testArchive(t, []string{"waterway"}, []byte("tile"))
	a, err := FromBlob(blob)
	if err != nil {
		t.Fatalf("could not open archive: %v", err)
	}
	b, err := FromBlob(blob)
	if err != nil {
		t.Fatalf("could not open archive: %v", err)
	}

	handleA := registry.Register(a)
	if registry.Register(a) != handleA {
		t.Fatalf("re-registration produced a new handle")
	}
	handleB := registry.Register(b)
	if handleA == handleB {
		t.Fatalf("distinct archive instances share a handle")
	}

	got, ok := registry.Lookup(handleA)
	if !ok || got != a {
		t.Fatalf("lookup failed for %s", handleA)
	}

	registry.Deregister(handleA)
	if _, ok := registry.Lookup(handleA); ok {
		t.Fatalf("handle survived deregistration")
	}
}
