package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/articlegen/internal/storage"
)

// Change kinds reported by Watch.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Change describes one watcher-driven index mutation.
type Change struct {
	Kind string
	Ref
}

// ChangeCallback is called after a watcher-driven index change.
type ChangeCallback func(Change)

// Watch starts an fsnotify watcher on the articles root and processes file
// change events until ctx is cancelled. It calls cb (if non-nil) after
// each index mutation. Writes whose content is already indexed, such as the
// service's own saves, are skipped without a callback.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db *DB, store storage.Provider, root string, logger *slog.Logger, cb ChangeCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind string, ref Ref) {
		if cb != nil && ref.ID != "" {
			cb(Change{Kind: kind, Ref: ref})
		}
	}

	// reconcileTimer is used to debounce rename reconciliation.
	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(200 * time.Millisecond)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(ctx, db, store, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: add to watcher and index their contents.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(ctx, db, store, root, absPath, logger, emit)
					continue
				}
			}

			// Only article files from here on; temp files from atomic writes are ignored.
			base := filepath.Base(absPath)
			if !strings.HasSuffix(base, ".md") || strings.HasPrefix(base, ".") {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				ref, changed, idxErr := indexIfChanged(ctx, db, store, rel)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				if !changed {
					continue
				}
				kind := ChangeUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = ChangeCreated
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				emit(kind, ref)

			case ev.Op&fsnotify.Remove != 0:
				ref, delErr := db.DeleteByPath(ctx, rel)
				if delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("path", rel))
				emit(ChangeDeleted, ref)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We delete the old entry
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				ref, delErr := db.DeleteByPath(ctx, rel)
				if delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("path", rel))
					emit(ChangeDeleted, ref)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// indexIfChanged reads rel and indexes it unless the stored checksum
// already matches.
func indexIfChanged(ctx context.Context, db *DB, store storage.Provider, rel string) (Ref, bool, error) {
	data, err := store.Read(rel)
	if err != nil {
		return Ref{}, false, err
	}
	cs, err := db.GetChecksum(ctx, rel)
	if err != nil {
		return Ref{}, false, err
	}
	if cs == storage.Checksum(data) {
		return Ref{}, false, nil
	}
	ref, err := IndexFile(ctx, db, rel, data, time.Now())
	if err != nil {
		return Ref{}, false, err
	}
	return ref, true, nil
}

// reconcile does a lightweight sync using batch lookups: finds index entries
// without a corresponding file on disk and removes them, and finds on-disk
// files that are not indexed and indexes them.
func reconcile(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, emit func(string, Ref)) {
	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if ref, delErr := db.DeleteByPath(ctx, p); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("path", p))
				emit(ChangeDeleted, ref)
			}
		}
	}

	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if ref, idxErr := IndexFile(ctx, db, p, data, time.Now()); idxErr == nil {
			logger.Debug("reconcile: indexed new", slog.String("path", p))
			emit(ChangeCreated, ref)
		}
	}
}

// indexNewDir indexes any .md files found in a newly created directory.
func indexNewDir(ctx context.Context, db *DB, store storage.Provider, root, dirPath string, logger *slog.Logger, emit func(string, Ref)) {
	_ = filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(p, ".md") || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return nil
		}
		ref, changed, idxErr := indexIfChanged(ctx, db, store, filepath.ToSlash(rel))
		if idxErr == nil && changed {
			logger.Debug("watcher: indexed from new dir", slog.String("path", rel))
			emit(ChangeCreated, ref)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
