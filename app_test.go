package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"

	"fieldmap.dev/fieldmapd/params"
)

// fixtureArchive builds a minimal PMTiles v3 blob: one tile at z0/0/0 in
// an uncompressed root directory, metadata naming a single vector layer.
func fixtureArchive(t *testing.T) []byte {
	t.Helper()

	writeUvarint := func(buf *bytes.Buffer, v uint64) {
		tmp := make([]byte, binary.MaxVarintLen64)
		buf.Write(tmp[:binary.PutUvarint(tmp, v)])
	}

	tile := []byte("tile")
	var dir bytes.Buffer
	writeUvarint(&dir, 1)                 // entry count
	writeUvarint(&dir, 0)                 // tile id delta
	writeUvarint(&dir, 1)                 // run length
	writeUvarint(&dir, uint64(len(tile))) // length
	writeUvarint(&dir, 1)                 // offset 0, stored as offset+1

	metadata, err := json.Marshal(map[string]any{
		"vector_layers": []map[string]string{{"id": "waterway"}},
	})
	if err != nil {
		t.Fatalf("could not marshal fixture metadata: %v", err)
	}

	headerLen := uint64(127)
	rootLength := uint64(dir.Len())
	metaOffset := headerLen + rootLength
	tileOffset := metaOffset + uint64(len(metadata))

	header := make([]byte, headerLen)
	copy(header, "PMTiles")
	header[7] = 3 // format version
	binary.LittleEndian.PutUint64(header[8:], headerLen)
	binary.LittleEndian.PutUint64(header[16:], rootLength)
	binary.LittleEndian.PutUint64(header[24:], metaOffset)
	binary.LittleEndian.PutUint64(header[32:], uint64(len(metadata)))
	binary.LittleEndian.PutUint64(header[56:], tileOffset)
	binary.LittleEndian.PutUint64(header[64:], uint64(len(tile)))
	binary.LittleEndian.PutUint64(header[72:], 1) // addressed tiles
	binary.LittleEndian.PutUint64(header[80:], 1) // tile entries
	binary.LittleEndian.PutUint64(header[88:], 1) // tile contents
	header[96] = 1                                // clustered
	header[97] = 1                                // internal compression: none
	header[98] = 1                                // tile compression: none
	header[99] = 1                                // tile type: mvt

	blob := append([]byte{}, header...)
	blob = append(blob, dir.Bytes()...)
	blob = append(blob, metadata...)
	return append(blob, tile...)
}

func TestResolveAndBindReleasesReplacedArchive(t *testing.T) {
	root := t.TempDir()
	store, err := params.Open(root)
	if err != nil {
		t.Fatalf("could not open store: %v", err)
	}
	err = store.Put(params.SETTINGS, []byte(`{"offline_tiles_enabled": true}`))
	if err != nil {
		t.Fatalf("could not seed settings: %v", err)
	}
	err = store.PutArchive(fixtureArchive(t), "https://example.com/map.pmtiles")
	if err != nil {
		t.Fatalf("could not seed cache: %v", err)
	}

	app, err := NewApp(root)
	if err != nil {
		t.Fatalf("could not build app: %v", err)
	}

	err = app.ResolveAndBind(context.Background())
	if err != nil {
		t.Fatalf("first bind failed: %v", err)
	}
	first, bound := app.Map.Descriptor()
	if !bound {
		t.Fatalf("map not bound")
	}
	if _, ok := app.Registry.Lookup(first.Handle); !ok {
		t.Fatalf("bound archive missing from registry")
	}

	err = app.ResolveAndBind(context.Background())
	if err != nil {
		t.Fatalf("second bind failed: %v", err)
	}
	second, _ := app.Map.Descriptor()
	if second.Handle == first.Handle {
		t.Fatalf("re-resolution reused a stale handle")
	}
	if _, ok := app.Registry.Lookup(first.Handle); ok {
		t.Fatalf("replaced archive still registered under %s", first.Handle)
	}
	if _, ok := app.Registry.Lookup(second.Handle); !ok {
		t.Fatalf("active archive missing from registry")
	}
}
