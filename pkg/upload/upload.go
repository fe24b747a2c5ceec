package upload

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned when a staged entry doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrReleased is returned when opening an entry that was already released.
var ErrReleased = errors.New("upload: file already released")

// Store is the interface for staging backends.
type Store interface {
	// Save writes r to a new, uniquely named entry and returns its ID and
	// the number of bytes written.
	Save(ctx context.Context, r io.Reader) (id string, size int64, err error)

	// Open returns a fresh reader over a saved entry.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Remove deletes an entry. Returns ErrNotFound when it is already gone.
	Remove(ctx context.Context, id string) error

	// Sweep removes entries older than maxAge and reports how many were
	// removed.
	Sweep(ctx context.Context, maxAge time.Duration) (int, error)
}

// Staged is a file held in a Store for one request.
type Staged struct {
	// ID is the store entry name.
	ID string

	// Filename is the original filename from the client.
	Filename string

	// ContentType is the MIME type of the file.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// CreatedAt is when the entry finished writing.
	CreatedAt time.Time

	store      Store
	once       sync.Once
	released   atomic.Bool
	releaseErr error
}

// Stage saves r into store and returns the handle for it.
func Stage(ctx context.Context, store Store, filename, contentType string, r io.Reader) (*Staged, error) {
	id, size, err := store.Save(ctx, r)
	if err != nil {
		return nil, err
	}
	return &Staged{
		ID:          id,
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		CreatedAt:   time.Now(),
		store:       store,
	}, nil
}

// Open returns a new reader over the staged bytes. The caller closes it.
func (s *Staged) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.released.Load() {
		return nil, ErrReleased
	}
	return s.store.Open(ctx, s.ID)
}

// Release deletes the staged entry. Only the first call touches the store;
// later calls return the first call's result. An entry that is already
// missing counts as released.
func (s *Staged) Release(ctx context.Context) error {
	s.once.Do(func() {
		s.released.Store(true)
		err := s.store.Remove(ctx, s.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.releaseErr = err
		}
	})
	return s.releaseErr
}

// Released reports whether Release has been called.
func (s *Staged) Released() bool {
	return s.released.Load()
}
