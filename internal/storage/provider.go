// Package storage keeps article files on disk, one Markdown file per article.
package storage

import "github.com/starford/articlegen/internal/models"

// Provider is the interface for article file operations. Paths are relative
// to the articles root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
