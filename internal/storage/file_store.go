package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrFileNotFound indicates the stored file no longer exists on disk.
	ErrFileNotFound = errors.New("storage: file not found")
	errInvalidName  = errors.New("storage: invalid stored name")
)

// FileStore persists letter attachments on the local filesystem. Files are
// written under a single root directory with uuid-based names so uploads
// with the same original name never collide.
type FileStore struct {
	root string
}

// NewFileStore ensures the root directory exists and returns the store.
func NewFileStore(root string) (*FileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("storage: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{root: root}, nil
}

// Save writes the content to a new uuid-named file, keeping the original
// extension, and returns the stored name.
func (s *FileStore) Save(content io.Reader, originalName string) (string, error) {
	identifier, err := uuid.NewV7()
	if err != nil {
		return "", err
	}

	storedName := identifier.String() + sanitizeExtension(originalName)
	file, err := os.Create(filepath.Join(s.root, storedName))
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		os.Remove(file.Name())
		return "", err
	}
	return storedName, nil
}

// Open returns a reader over a stored file.
func (s *FileStore) Open(storedName string) (*os.File, error) {
	path, err := s.Path(storedName)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return file, err
}

// Remove deletes a stored file; a missing file is not an error.
func (s *FileStore) Remove(storedName string) error {
	path, err := s.Path(storedName)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Path resolves the absolute location of a stored file, rejecting names
// that would escape the root directory.
func (s *FileStore) Path(storedName string) (string, error) {
	if storedName == "" || storedName != filepath.Base(storedName) {
		return "", errInvalidName
	}
	return filepath.Join(s.root, storedName), nil
}

func sanitizeExtension(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if len(ext) > 16 {
		return ""
	}
	return ext
}
