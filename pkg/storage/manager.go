package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// WriteFileAtomic writes a file by streaming write into a temporary sibling,
// syncing it, and renaming it over path. Readers never observe a partially
// written file.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// PathFunc maps a cell and photo id to the file that holds the image.
type PathFunc func(cellID, photoID string) string

// ImageStore saves downloaded images under the zone's img directory and
// keeps a count of what it wrote during this run.
type ImageStore struct {
	pathFor PathFunc
	mu      sync.Mutex
	saved   int
}

// NewImageStore creates an image store that places files with pathFor.
func NewImageStore(pathFor PathFunc) *ImageStore {
	return &ImageStore{pathFor: pathFor}
}

// Path returns the destination for a photo.
func (s *ImageStore) Path(cellID, photoID string) string {
	return s.pathFor(cellID, photoID)
}

// Save copies r into the photo's file, creating the cell directory if needed.
func (s *ImageStore) Save(r io.Reader, cellID, photoID string) (string, error) {
	path := s.pathFor(cellID, photoID)

	err := WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.saved++
	s.mu.Unlock()

	return path, nil
}

// SavedCount returns the number of images written by this store.
func (s *ImageStore) SavedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}
