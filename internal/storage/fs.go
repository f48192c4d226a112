package storage

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/articlegen/internal/models"
)

// ErrOutsideRoot is returned for paths that are absolute or climb out of the
// articles directory.
var ErrOutsideRoot = errors.New("storage: path outside articles root")

// tmpPrefix marks in-flight writes. List skips dot files, so readers never
// see them.
const tmpPrefix = ".write-"

// FS implements Provider on the local file system. Every operation goes
// through an os.Root, so symlinks inside the tree cannot reach outside it
// either.
type FS struct {
	dir  string
	root *os.Root
}

// NewFS opens dir as the articles root, creating it if needed.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open root: %w", err)
	}
	return &FS{dir: abs, root: root}, nil
}

// Root returns the absolute articles directory.
func (f *FS) Root() string { return f.dir }

// Close releases the root handle.
func (f *FS) Close() error { return f.root.Close() }

// local converts a slash path from callers into a root-relative name.
func local(rel string) (string, error) {
	if rel == "" {
		return ".", nil
	}
	name := filepath.FromSlash(rel)
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, rel)
	}
	return name, nil
}

// List walks dir and returns metadata for every visible .md file. A missing
// dir lists as empty.
func (f *FS) List(dir string) ([]models.FileMeta, error) {
	name, err := local(dir)
	if err != nil {
		return nil, err
	}
	fsys := f.root.FS()
	var out []models.FileMeta
	err = fs.WalkDir(fsys, filepath.ToSlash(name), func(p string, d fs.DirEntry, walkErr error) error {
		switch {
		case errors.Is(walkErr, fs.ErrNotExist) && p == filepath.ToSlash(name):
			return fs.SkipAll
		case walkErr != nil:
			return walkErr
		case d.IsDir(), strings.HasPrefix(d.Name(), "."), path.Ext(p) != ".md":
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		out = append(out, models.FileMeta{Path: p, Checksum: Checksum(data), UpdatedAt: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", dir, err)
	}
	return out, nil
}

// Read returns the raw bytes of an article file. Missing files wrap
// fs.ErrNotExist.
func (f *FS) Read(rel string) ([]byte, error) {
	name, err := local(rel)
	if err != nil {
		return nil, err
	}
	data, err := f.root.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", rel, err)
	}
	return data, nil
}

// Write replaces the file at rel in one step: the content goes to a hidden
// sibling that is synced and then renamed over the target.
func (f *FS) Write(rel string, content []byte) (err error) {
	name, err := local(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(name)
	if err := f.root.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, tmpPrefix+rand.Text())
	w, err := f.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", rel, err)
	}
	defer func() {
		if err != nil {
			_ = w.Close()
			_ = f.root.Remove(tmp)
		}
	}()

	if _, err = w.Write(content); err != nil {
		return fmt.Errorf("storage: write %s: %w", rel, err)
	}
	if err = w.Sync(); err != nil {
		return fmt.Errorf("storage: sync %s: %w", rel, err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", rel, err)
	}
	if err = f.root.Rename(tmp, name); err != nil {
		return fmt.Errorf("storage: replace %s: %w", rel, err)
	}
	return nil
}

// Delete removes an article file. Missing files wrap fs.ErrNotExist.
func (f *FS) Delete(rel string) error {
	name, err := local(rel)
	if err != nil {
		return err
	}
	if err := f.root.Remove(name); err != nil {
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	return nil
}

// Checksum returns the hex-encoded SHA-256 digest of data. It doubles as the
// article ETag.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
