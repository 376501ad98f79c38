package basemap

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/protomaps/go-pmtiles/pmtiles"
)

// rangeFunc reads length bytes starting at offset from the archive
// backing (in-memory blob, local file, or remote URL).
type rangeFunc func(offset uint64, length uint64) ([]byte, error)

// Archive is an opened PMTiles archive. The backing is abstracted so the
// cached blob, a bundled file and a remote URL all read the same way.
type Archive struct {
	Header   pmtiles.HeaderV3
	Metadata map[string]any
	fetch    rangeFunc
	size     int64
}

// FromBlob opens an archive held fully in memory.
func FromBlob(data []byte) (*Archive, error) {
	fetch := func(offset uint64, length uint64) ([]byte, error) {
		if offset+length > uint64(len(data)) {
			return nil, errors.New("archive range out of bounds")
		}
		return data[offset : offset+length], nil
	}
	return open(fetch, int64(len(data)))
}

// FromFile opens an archive on the local filesystem without reading it
// whole.
func FromFile(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open local archive")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "could not stat local archive")
	}
	fetch := func(offset uint64, length uint64) ([]byte, error) {
		buf := make([]byte, length)
		_, err := file.ReadAt(buf, int64(offset))
		if err != nil {
			return nil, errors.Wrap(err, "could not read local archive range")
		}
		return buf, nil
	}
	return open(fetch, info.Size())
}

// FromURL opens a remote archive over HTTP range requests.
func FromURL(ctx context.Context, client *http.Client, url string) (*Archive, error) {
	fetch := func(offset uint64, length uint64) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "could not build archive range request")
		}
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
		resp, err := client.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "could not fetch archive range")
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusPartialContent:
		case http.StatusOK:
			// server ignored the range request, skip to the offset
			if offset > 0 {
				_, err := io.CopyN(io.Discard, resp.Body, int64(offset))
				if err != nil {
					return nil, errors.Wrap(err, "could not skip to archive range offset")
				}
			}
		default:
			return nil, errors.Errorf("archive range request received bad status: %s", resp.Status)
		}
		buf, err := io.ReadAll(io.LimitReader(resp.Body, int64(length)))
		if err != nil {
			return nil, errors.Wrap(err, "could not read archive range body")
		}
		if uint64(len(buf)) < length {
			return nil, errors.New("archive range response truncated")
		}
		return buf, nil
	}
	return open(fetch, 0)
}

func open(fetch rangeFunc, size int64) (*Archive, error) {
	headerBytes, err := fetch(0, pmtiles.HeaderV3LenBytes)
	if err != nil {
		return nil, err
	}
	header, err := pmtiles.DeserializeHeader(headerBytes)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse archive header")
	}

	a := &Archive{Header: header, fetch: fetch, size: size}
	if header.MetadataLength > 0 {
		raw, err := fetch(header.MetadataOffset, header.MetadataLength)
		if err != nil {
			return nil, err
		}
		decoded, err := a.decompress(raw)
		if err != nil {
			return nil, err
		}
		err = json.Unmarshal(decoded, &a.Metadata)
		if err != nil {
			return nil, errors.Wrap(err, "could not parse archive metadata")
		}
	}
	return a, nil
}

// Size is the archive length in bytes, 0 when the backing does not
// report one.
func (a *Archive) Size() int64 {
	return a.size
}

// VectorLayerNames lists the named layers embedded in the archive
// metadata, in archive order.
func (a *Archive) VectorLayerNames() []string {
	names := []string{}
	layers, ok := a.Metadata["vector_layers"].([]any)
	if !ok {
		return names
	}
	for _, layer := range layers {
		fields, ok := layer.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := fields["id"].(string); ok {
			names = append(names, id)
		}
	}
	return names
}

// Tile returns the raw tile bytes at z/x/y, or ok=false when the
// archive has no tile there. Tile-level compression is left to the
// consumer, matching the header's TileCompression.
func (a *Archive) Tile(z uint8, x uint32, y uint32) (data []byte, ok bool, err error) {
	id := pmtiles.ZxyToID(z, x, y)

	offset := a.Header.RootOffset
	length := a.Header.RootLength
	for range 4 { // root plus up to three leaf levels
		entries, err := a.directory(offset, length)
		if err != nil {
			return nil, false, err
		}
		entry, found := findEntry(entries, id)
		if !found {
			return nil, false, nil
		}
		if entry.runLength > 0 {
			data, err := a.fetch(a.Header.TileDataOffset+entry.offset, uint64(entry.length))
			if err != nil {
				return nil, false, err
			}
			return data, true, nil
		}
		offset = a.Header.LeafDirectoryOffset + entry.offset
		length = uint64(entry.length)
	}
	return nil, false, errors.New("archive directory nesting too deep")
}

func (a *Archive) decompress(data []byte) ([]byte, error) {
	switch a.Header.InternalCompression {
	case pmtiles.NoCompression, pmtiles.UnknownCompression:
		return data, nil
	case pmtiles.Gzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.Wrap(err, "could not open gzip archive section")
		}
		defer reader.Close()
		decoded, err := io.ReadAll(reader)
		if err != nil {
			return nil, errors.Wrap(err, "could not decompress archive section")
		}
		return decoded, nil
	}
	return nil, errors.Errorf("unsupported archive internal compression: %d", a.Header.InternalCompression)
}

type dirEntry struct {
	tileID    uint64
	offset    uint64
	length    uint32
	runLength uint32
}

// directory decodes a serialized directory: an entry count followed by
// column-ordered varints (tile id deltas, run lengths, lengths,
// offsets, with a zero offset meaning "previous offset plus length").
func (a *Archive) directory(offset uint64, length uint64) ([]dirEntry, error) {
	raw, err := a.fetch(offset, length)
	if err != nil {
		return nil, err
	}
	data, err := a.decompress(raw)
	if err != nil {
		return nil, err
	}

	read := func() (uint64, error) {
		v, n := binary.Uvarint(data)
		if n <= 0 {
			return 0, errors.New("truncated archive directory")
		}
		data = data[n:]
		return v, nil
	}

	count, err := read()
	if err != nil {
		return nil, err
	}
	entries := make([]dirEntry, count)

	lastID := uint64(0)
	for i := range entries {
		delta, err := read()
		if err != nil {
			return nil, err
		}
		lastID += delta
		entries[i].tileID = lastID
	}
	for i := range entries {
		v, err := read()
		if err != nil {
			return nil, err
		}
		entries[i].runLength = uint32(v)
	}
	for i := range entries {
		v, err := read()
		if err != nil {
			return nil, err
		}
		entries[i].length = uint32(v)
	}
	for i := range entries {
		v, err := read()
		if err != nil {
			return nil, err
		}
		if v == 0 && i > 0 {
			entries[i].offset = entries[i-1].offset + uint64(entries[i-1].length)
		} else {
			entries[i].offset = v - 1
		}
	}
	return entries, nil
}

func findEntry(entries []dirEntry, id uint64) (dirEntry, bool) {
	low := 0
	high := len(entries) - 1
	match := -1
	for low <= high {
		mid := (low + high) / 2
		if entries[mid].tileID <= id {
			match = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	if match < 0 {
		return dirEntry{}, false
	}
	entry := entries[match]
	if entry.runLength == 0 {
		// leaf pointer, caller descends
		return entry, true
	}
	if id < entry.tileID+uint64(entry.runLength) {
		return entry, true
	}
	return dirEntry{}, false
}
