package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/articlegen/internal/apperr"
)

// ArticleRow represents a row in the articles table.
type ArticleRow struct {
	ID              string
	Path            string
	OwnerID         string
	Slug            string
	Title           string
	Status          string
	MetaDescription string
	Tags            []string
	FeaturedImage   string
	Checksum        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PublishedAt     *time.Time
}

// SearchResult represents one search hit.
type SearchResult struct {
	ID      string
	Path    string
	Title   string
	Snippet string
}

const articleColumns = `id, path, owner_id, slug, title, status, meta_description, tags,
	featured_image, checksum, created_at, updated_at, published_at`

// UpsertArticle inserts or replaces an article and its FTS entry within a
// transaction. Rows are keyed by id; a row previously stored under another
// path is moved.
func (db *DB) UpsertArticle(ctx context.Context, a ArticleRow, body string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if a.Tags == nil {
		a.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(a.Tags)

	var oldPath string
	_ = tx.QueryRowContext(ctx, `SELECT path FROM articles WHERE id = ?`, a.ID).Scan(&oldPath)
	if oldPath != "" && oldPath != a.Path {
		ftsDelete(tx, oldPath)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO articles (id, path, owner_id, slug, title, status, meta_description, tags,
		                      featured_image, checksum, body, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path             = excluded.path,
			owner_id         = excluded.owner_id,
			slug             = excluded.slug,
			title            = excluded.title,
			status           = excluded.status,
			meta_description = excluded.meta_description,
			tags             = excluded.tags,
			featured_image   = excluded.featured_image,
			checksum         = excluded.checksum,
			body             = excluded.body,
			updated_at       = excluded.updated_at,
			published_at     = excluded.published_at
	`, a.ID, a.Path, a.OwnerID, a.Slug, a.Title, a.Status, a.MetaDescription, string(tagsJSON),
		a.FeaturedImage, a.Checksum, body, a.CreatedAt.UTC(), a.UpdatedAt.UTC(), utcPtr(a.PublishedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("index: article path %s: %w", a.Path, apperr.ErrConflict)
		}
		return fmt.Errorf("index: upsert article: %w", err)
	}

	// FTS upsert (no-op when FTS5 tag is absent).
	if err := ftsUpsert(tx, a.Path, a.Title, body, a.Tags); err != nil {
		return err
	}
	return tx.Commit()
}

// GetArticle returns the article with id and its body.
func (db *DB) GetArticle(ctx context.Context, id string) (ArticleRow, string, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+articleColumns+`, body FROM articles WHERE id = ?`, id)
	var body string
	a, err := scanArticle(row, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return ArticleRow{}, "", fmt.Errorf("index: article %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return ArticleRow{}, "", fmt.Errorf("index: get article: %w", err)
	}
	return a, body, nil
}

// ListArticles returns one page of owner's articles, newest first, and the
// total count. An empty status matches every status.
func (db *DB) ListArticles(ctx context.Context, owner, status string, limit, offset int) ([]ArticleRow, int, error) {
	if limit <= 0 {
		limit = 20
	}
	where := "owner_id = ?"
	args := []any{owner}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM articles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count articles: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE `+where+` ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list articles: %w", err)
	}
	defer rows.Close()

	var out []ArticleRow
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// CountByStatus returns owner's article counts keyed by status.
func (db *DB) CountByStatus(ctx context.Context, owner string) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT status, count(*) FROM articles WHERE owner_id = ? GROUP BY status`, owner)
	if err != nil {
		return nil, fmt.Errorf("index: count by status: %w", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

// DeleteArticle removes an article by id and its FTS entry.
func (db *DB) DeleteArticle(ctx context.Context, id string) error {
	var path string
	err := db.conn.QueryRowContext(ctx, `SELECT path FROM articles WHERE id = ?`, id).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("index: article %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("index: delete article: %w", err)
	}
	_, err = db.DeleteByPath(ctx, path)
	return err
}

// Ref identifies an indexed article.
type Ref struct {
	ID      string
	OwnerID string
	Path    string
}

// DeleteByPath removes the article stored at path. It returns the removed
// article, or a zero Ref when nothing was indexed there.
func (db *DB) DeleteByPath(ctx context.Context, path string) (Ref, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return Ref{}, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ref := Ref{Path: path}
	err = tx.QueryRowContext(ctx, `SELECT id, owner_id FROM articles WHERE path = ?`, path).Scan(&ref.ID, &ref.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Ref{}, nil
	}
	if err != nil {
		return Ref{}, fmt.Errorf("index: delete article: %w", err)
	}

	ftsDelete(tx, path)
	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE path = ?`, path); err != nil {
		return Ref{}, fmt.Errorf("index: delete article: %w", err)
	}
	return ref, tx.Commit()
}

// SlugExists reports whether another article already uses slug.
func (db *DB) SlugExists(ctx context.Context, slug, exceptID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM articles WHERE slug = ? AND id != ?`, slug, exceptID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("index: slug exists: %w", err)
	}
	return n > 0, nil
}

// GetChecksum returns the stored checksum for a path, or "" if not indexed.
func (db *DB) GetChecksum(ctx context.Context, path string) (string, error) {
	var cs string
	err := db.conn.QueryRowContext(ctx, `SELECT checksum FROM articles WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: get checksum: %w", err)
	}
	return cs, nil
}

// AllChecksums maps every indexed path to its checksum.
func (db *DB) AllChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner, extra ...any) (ArticleRow, error) {
	var a ArticleRow
	var tags string
	var published sql.NullTime
	dest := []any{&a.ID, &a.Path, &a.OwnerID, &a.Slug, &a.Title, &a.Status, &a.MetaDescription, &tags,
		&a.FeaturedImage, &a.Checksum, &a.CreatedAt, &a.UpdatedAt, &published}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return ArticleRow{}, err
	}
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil || a.Tags == nil {
		a.Tags = []string{}
	}
	if published.Valid {
		t := published.Time
		a.PublishedAt = &t
	}
	return a, nil
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// likePattern escapes LIKE wildcards in q.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
