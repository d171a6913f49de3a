package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrUnsupportedExtension is returned when a file is not an allowed image type.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// allowedExtensions is the image allow-list for screenshot uploads.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// BlobStore stores uploaded files and returns a reference path kept on the
// task update. The store is an injected capability so handlers never touch
// the filesystem directly.
type BlobStore interface {
	Store(data []byte, filename string) (string, error)
}

// LocalBlobStore writes uploads to a directory on local disk.
type LocalBlobStore struct {
	dir string
}

// NewLocalBlobStore creates a blob store rooted at dir, creating it if needed.
func NewLocalBlobStore(dir string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalBlobStore{dir: dir}, nil
}

// Store saves the file under a unique name and returns its reference path.
func (s *LocalBlobStore) Store(data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedExtension
	}

	// The caller-supplied name is only kept for its extension; the stored
	// name is generated to avoid collisions and path tricks.
	name := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filepath.ToSlash(filepath.Join(filepath.Base(s.dir), name)), nil
}
