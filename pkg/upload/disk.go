package upload

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// stagedPrefix marks entries owned by a DiskStore so Sweep leaves other
// files in the directory alone.
const stagedPrefix = "staged-"

// DiskStore stages uploads on the local filesystem.
type DiskStore struct {
	dir string
}

// NewDiskStore creates a new DiskStore, creating dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the staging directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Path returns the file path of an entry. Invalid IDs yield "".
func (s *DiskStore) Path(id string) string {
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return filepath.Join(s.dir, stagedPrefix+id)
}

// Save writes r to a new file and returns its ID.
func (s *DiskStore) Save(_ context.Context, r io.Reader) (string, int64, error) {
	id := uuid.NewString()
	path := s.Path(id)

	// O_EXCL: a name collision is an error, never a silent overwrite.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, err
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return "", 0, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return id, written, nil
}

// Open opens an entry for reading.
func (s *DiskStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	path := s.Path(id)
	if path == "" {
		return nil, ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Remove deletes an entry.
func (s *DiskStore) Remove(_ context.Context, id string) error {
	path := s.Path(id)
	if path == "" {
		return ErrNotFound
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Sweep removes staged files whose modification time is older than maxAge.
func (s *DiskStore) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), stagedPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}
