package params

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/gofrs/flock"

	"fieldmap.dev/fieldmapd/utils"
)

var basePath utils.Curry[string]

// Store is a directory-of-files key-value store. Each key is a single
// file under Root; writes go through a temp file, fsync and rename while
// holding a lock on the store directory.
type Store struct {
	Root string
}

// Keys used by fieldmapd. Screens that keep their own entry lists
// (reports, scans, photo notes) store an independent JSON array under
// their own key and never touch the archive keys.
const (
	SETTINGS       = "FieldmapdSettings"
	WAYPOINTS      = "Waypoints"
	TILE_ARCHIVE   = "OfflineTileArchive"
	ARCHIVE_SOURCE = "OfflineTileArchiveSource"
)

// Open returns a store rooted at dir, creating it if needed.
func Open(dir string) (*Store, error) {
	err := os.MkdirAll(dir, 0o775)
	if err != nil {
		return nil, errors.Wrap(err, "could not create params directory")
	}
	return &Store{Root: dir}, nil
}

// DefaultRoot resolves the store location once per process:
// FIELDMAPD_DATA when set, otherwise the user config dir, otherwise the
// working directory.
func DefaultRoot() string {
	return basePath.Value(func() string {
		if dir := os.Getenv("FIELDMAPD_DATA"); dir != "" {
			return dir
		}
		dir, err := os.UserConfigDir()
		if err != nil {
			slog.Warn("could not resolve user config dir, using working directory", "error", err)
			return "fieldmapd"
		}
		return filepath.Join(dir, "fieldmapd")
	})
}

// Exists returns whether the given file or directory exists
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, "could not check param file stats")
}

func (s *Store) path(key string) string {
	return filepath.Join(s.Root, key)
}

// Keys lists the stored keys in sorted order.
func (s *Store) Keys() ([]string, error) {
	files, err := os.ReadDir(s.Root)
	if err != nil {
		return nil, errors.Wrap(err, "could not read params directory")
	}

	keys := []string{}
	for _, file := range files {
		name := file.Name()
		if file.Type().IsRegular() && name[0] != '.' {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *Store) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, errors.Wrap(err, "could not read param")
	}
	return data, nil
}

func (s *Store) Has(key string) bool {
	exists, err := Exists(s.path(key))
	if err != nil {
		slog.Warn("could not check param existence", "error", err, "key", key)
	}
	return exists
}

func (s *Store) Put(key string, data []byte) error {
	path := s.path(key)
	file, err := os.CreateTemp(s.Root, ".tmp_value_"+key)
	if err != nil {
		return errors.Wrap(err, "could not create temp param file")
	}
	tmpName := file.Name()
	defer os.Remove(tmpName)

	_, err = file.Write(data)
	if err != nil {
		return errors.Wrap(err, "could not write data to temp param file")
	}

	err = file.Sync()
	if err != nil {
		return errors.Wrap(err, "could not fsync temp param file")
	}

	err = file.Close()
	if err != nil {
		return errors.Wrap(err, "could not close temp param file")
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	err = os.Rename(tmpName, path)
	if err != nil {
		return errors.Wrap(err, "could not move temp param file to persistent location")
	}

	return s.syncRoot()
}

// Delete removes a key. Deleting a key that is not present is not an
// error.
func (s *Store) Delete(key string) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	err = os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "could not remove param file")
	}

	return s.syncRoot()
}

func (s *Store) syncRoot() error {
	directory, err := os.Open(s.Root)
	if err != nil {
		return errors.Wrap(err, "could not open params directory")
	}
	defer directory.Close()

	err = directory.Sync()
	if err != nil {
		return errors.Wrap(err, "could not fsync params directory")
	}
	return nil
}

func (s *Store) lock() (func(), error) {
	lockPath := filepath.Join(s.Root, ".lock")
	fileLock := flock.New(lockPath)

	retries := 0
	for {
		locked, err := fileLock.TryLock()
		if err != nil {
			return nil, errors.Wrap(err, "could not try locking params directory")
		}
		if locked {
			break
		}
		retries += 1
		if retries > 30 {
			// try to force the lock to be removed
			if err := os.Remove(lockPath); err != nil {
				slog.Debug("failed to force delete params lock", "error", err)
			}
		}
		if retries > 50 {
			return nil, errors.New("could not obtain lock")
		}
		// if we didn't obtain the lock let's try again after a short delay
		time.Sleep(1 * time.Millisecond)
	}

	return func() {
		if err := fileLock.Unlock(); err != nil {
			slog.Error("could not unlock params directory", "error", err)
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			slog.Error("could not remove params lock file", "error", err)
		}
	}, nil
}
