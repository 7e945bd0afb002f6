// Package disk provides a storage.UploadStore that writes each upload as a
// file in a single directory.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rhuss/pinpoint/pkg/debug"
	"github.com/rhuss/pinpoint/pkg/storage"
)

// Store writes uploads below dir.
type Store struct {
	dir string
	now func() time.Time
}

// Ensure Store implements storage.UploadStore at compile time.
var _ storage.UploadStore = (*Store)(nil)

// New creates the directory if needed and returns a store writing into it.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("disk store: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk store: creating %s: %w", dir, err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the directory uploads are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload to a new file and returns its name.
func (s *Store) Save(ctx context.Context, u storage.Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", storage.ErrEmpty
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := storage.NewUploadName(s.now(), u.ContentType)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", storage.ErrConflict
		}
		return "", fmt.Errorf("disk store: creating %s: %w", name, err)
	}
	if _, err := f.Write(u.Data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("disk store: writing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("disk store: closing %s: %w", name, err)
	}

	debug.Log("uploads", "upload saved", "name", name, "bytes", len(u.Data))
	return name, nil
}

// Get reads the upload stored under name.
func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := storage.ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("disk store: reading %s: %w", name, err)
	}
	return data, nil
}
