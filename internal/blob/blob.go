// Package blob provides flat-file storage for photo blobs.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store errors.
var (
	ErrNotFound  = errors.New("blob not found")
	ErrEmptyName = errors.New("blob name cannot be empty")
)

// Store defines the interface for blob storage operations.
type Store interface {
	// Save stores the content of r under the given name, overwriting
	// any previous blob with that name.
	Save(name string, r io.Reader) error

	// Path returns the absolute path of the named blob, or ErrNotFound
	// if no such blob exists.
	Path(name string) (string, error)

	// Remove deletes the named blob. Callers that treat blob removal as
	// best-effort are expected to ignore the returned error.
	Remove(name string) error
}

// DirStore implements Store with one file per blob under a base directory.
type DirStore struct {
	dir string
}

// NewDirStore creates a DirStore rooted at dir, creating the directory
// if necessary.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

// Save stores the content of r under the given name.
func (s *DirStore) Save(name string, r io.Reader) error {
	path, err := s.blobPath(name)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create blob %s: %w", name, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("write blob %s: %w", name, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close blob %s: %w", name, err)
	}

	return nil
}

// Path returns the absolute path of the named blob if it exists.
func (s *DirStore) Path(name string) (string, error) {
	path, err := s.blobPath(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}

	return path, nil
}

// Remove deletes the named blob.
func (s *DirStore) Remove(name string) error {
	path, err := s.blobPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove blob %s: %w", name, err)
	}

	return nil
}

// blobPath resolves a blob name to a path inside the base directory.
// Names are opaque generated filenames; path separators are rejected to
// keep every blob inside the directory.
func (s *DirStore) blobPath(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("invalid blob name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}
