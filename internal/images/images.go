// Package images stores featured images uploaded through the API or the MCP
// tools. Files live flat in one directory under generated names.
package images

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxBytes is the largest accepted image.
const MaxBytes = 10 << 20 // 10 MB

var (
	ErrUnsupported = errors.New("images: unsupported image type")
	ErrTooLarge    = errors.New("images: image too large")
	ErrInvalidName = errors.New("images: invalid filename")
)

var allowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Store writes images to a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir. The directory is created on first
// save.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

// Save detects the type of data from its content, stores it under a fresh
// name and returns that name.
func (s *Store) Save(data []byte) (string, error) {
	if len(data) > MaxBytes {
		return "", ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedTypes...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("images: create dir: %w", err)
	}
	name := uuid.NewString() + mt.Extension()
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("images: write %s: %w", name, err)
	}
	return name, nil
}

// Path validates that name is a plain file name (no separators, no
// traversal) and returns its absolute location.
func (s *Store) Path(name string) (string, error) {
	if name == "" {
		return "", ErrInvalidName
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	return filepath.Join(s.dir, cleaned), nil
}

// URLPrefix is the public path images are served under.
const URLPrefix = "/api/images/"

// URL is the public path an image is served from.
func URL(name string) string {
	return URLPrefix + name
}
