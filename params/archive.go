package params

// ArchiveRecord is the persisted offline tile archive: the raw blob plus
// the URL it was downloaded from. SourceURL is empty for records written
// before provenance was tracked; such records are still usable cache.
type ArchiveRecord struct {
	Blob      []byte
	SourceURL string
}

// PutArchive stores the archive blob and its provenance. The blob is
// written first so a crash between the two writes degrades to a legacy
// record, never to provenance without data.
func (s *Store) PutArchive(blob []byte, sourceURL string) error {
	err := s.Put(TILE_ARCHIVE, blob)
	if err != nil {
		return err
	}
	return s.Put(ARCHIVE_SOURCE, []byte(sourceURL))
}

// GetArchive reads the stored archive record. ok is false when no blob
// is stored. A missing provenance sidecar yields an empty SourceURL.
func (s *Store) GetArchive() (record ArchiveRecord, ok bool) {
	blob, err := s.Get(TILE_ARCHIVE)
	if err != nil {
		return record, false
	}
	record.Blob = blob
	src, err := s.Get(ARCHIVE_SOURCE)
	if err == nil {
		record.SourceURL = string(src)
	}
	return record, true
}

// HasArchive reports whether a completed archive is stored without
// reading the blob.
func (s *Store) HasArchive() bool {
	return s.Has(TILE_ARCHIVE)
}

// DeleteArchive removes the archive and its provenance. Idempotent.
func (s *Store) DeleteArchive() error {
	err := s.Delete(TILE_ARCHIVE)
	if err != nil {
		return err
	}
	return s.Delete(ARCHIVE_SOURCE)
}
