package index

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/articlegen/internal/markdown"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/storage"
)

var errNoIdentity = errors.New("index: article frontmatter has no id or owner")

// Sync walks the articles directory and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if _, err := IndexFile(ctx, db, m.Path, data, m.UpdatedAt); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if _, err := db.DeleteByPath(ctx, p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexFile parses an article file and upserts it. Files without an id and
// owner in their frontmatter are rejected.
func IndexFile(ctx context.Context, db ArticleIndex, p string, data []byte, modTime time.Time) (Ref, error) {
	doc, err := markdown.Parse(data)
	if err != nil {
		return Ref{}, err
	}
	fm := doc.Frontmatter
	if fm == nil || fm.ID == "" || fm.Owner == "" {
		return Ref{}, errNoIdentity
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}
	status := fm.Status
	if status != models.StatusPublished {
		status = models.StatusDraft
	}
	created := fm.CreatedAt
	if created.IsZero() {
		created = modTime
	}

	row := ArticleRow{
		ID:              fm.ID,
		Path:            p,
		OwnerID:         fm.Owner,
		Slug:            strings.TrimSuffix(path.Base(p), ".md"),
		Title:           doc.Title,
		Status:          status,
		MetaDescription: fm.MetaDescription,
		Tags:            fm.Tags,
		FeaturedImage:   fm.FeaturedImage,
		Checksum:        storage.Checksum(data),
		CreatedAt:       created,
		UpdatedAt:       modTime,
		PublishedAt:     fm.PublishedAt,
	}
	if err := db.UpsertArticle(ctx, row, doc.Body); err != nil {
		return Ref{}, err
	}
	return Ref{ID: row.ID, OwnerID: row.OwnerID, Path: p}, nil
}
