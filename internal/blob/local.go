package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps blobs as files under a single directory, one file per
// id. Ids are random UUIDs, so original filenames never reach the
// filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the directory if needed and returns a store over it.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Put implements Store.
func (s *LocalStore) Put(_ context.Context, name string, r io.Reader) (string, int64, error) {
	id := uuid.NewString()
	path := s.path(id)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create blob %s: %w", id, err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", 0, fmt.Errorf("write blob %s (%s): %w", id, name, err)
	}
	return id, size, nil
}

// Open implements Store.
func (s *LocalStore) Open(_ context.Context, id string) (io.ReadCloser, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	f, err := os.Open(s.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	return f, nil
}

// Delete implements Store.
func (s *LocalStore) Delete(_ context.Context, id string) error {
	if !validID(id) {
		return nil
	}
	err := os.Remove(s.path(id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

func (s *LocalStore) path(id string) string {
	return filepath.Join(s.dir, id)
}

// validID rejects ids that could escape the blob directory. Generated ids
// are always UUIDs, so anything with a path separator is hostile input.
func validID(id string) bool {
	return id != "" && !strings.ContainsAny(id, "/\\") && id != "." && id != ".."
}
