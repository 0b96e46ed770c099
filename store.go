package pricer

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog/log"
)

// Store persists a Ledger in a single JSON file.
//
// Writes are atomic: the ledger is written to a temporary file in the same
// directory and renamed over the previous one. Read-modify-write cycles go
// through Update, which holds an advisory lock on "<path>.lock".
type Store struct {
	Path string
}

// NewStore returns a store for the ledger file at path.
func NewStore(path string) *Store { return &Store{Path: path} }

// Load reads the ledger. A missing file is an empty ledger.
func (s *Store) Load() (*Ledger, error) {
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", s.Path).Msg("ledger file does not exist, starting with an empty ledger")
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	l, err := DecodeLedger(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", s.Path, err)
	}
	return l, nil
}

// Save writes the ledger, replacing the previous file atomically.
func (s *Store) Save(l *Ledger) error {
	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		return fmt.Errorf("could not encode ledger: %w", err)
	}
	if err := writeFileAtomic(s.Path, buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Debug().Str("path", s.Path).Int("bytes", buf.Len()).Msg("ledger saved")
	return nil
}

// Update runs a read-modify-write cycle under the ledger lock.
//
// It fails immediately with ErrLocked if another process holds the lock.
// When fn returns an error nothing is written.
func (s *Store) Update(fn func(*Ledger) error) error {
	return s.locked(func() error {
		l, err := s.Load()
		if err != nil {
			return err
		}
		if err := fn(l); err != nil {
			return err
		}
		return s.Save(l)
	})
}

// Migrate moves sold lots found in the "open" section of a legacy file to
// the "closed" section, under the ledger lock. It returns the number of
// lots fixed; when there is none the file is left untouched.
func (s *Store) Migrate() (int, error) {
	var fixed int
	err := s.locked(func() error {
		raw, err := os.ReadFile(s.Path)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		l, n, err := DecodeLegacyLedger(bytes.NewReader(raw))
		if err != nil {
			return fmt.Errorf("could not decode ledger file %q: %w", s.Path, err)
		}
		fixed = n
		if n == 0 {
			return nil
		}
		return s.Save(l)
	})
	return fixed, err
}

func (s *Store) locked(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	lock := flock.New(s.Path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("%w: could not lock %q: %w", ErrIO, lock.Path(), err)
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrLocked, lock.Path())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.Warn().Err(err).Str("path", lock.Path()).Msg("could not release ledger lock")
		}
	}()
	return fn()
}

// writeFileAtomic writes data to a temporary file in the directory of
// target, then renames it over target. The file mode of an existing target
// is preserved.
func writeFileAtomic(target string, data []byte) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(target)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set temp file mode: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
