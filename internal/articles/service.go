// Package articles stores finished articles as Markdown files with YAML
// frontmatter and serves the dashboard views over the SQLite index.
package articles

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/index"
	"github.com/starford/articlegen/internal/markdown"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/storage"
)

// ChangeNotifier is told about article mutations so open dashboards can
// refresh.
type ChangeNotifier interface {
	ArticleChanged(owner, id, kind string)
}

// Change kinds.
const (
	KindSaved   = "saved"
	KindDeleted = "deleted"
)

// Service coordinates storage and index operations.
type Service struct {
	// mu serializes slug allocation with the file write and index upsert
	// that claim it.
	mu       sync.Mutex
	store    storage.Provider
	db       index.ArticleIndex
	baseURL  string
	notifier ChangeNotifier
	now      func() time.Time
}

// NewService creates a new article service. baseURL prefixes published
// article URLs.
func NewService(store storage.Provider, db index.ArticleIndex, baseURL string, notifier ChangeNotifier) *Service {
	return &Service{
		store:    store,
		db:       db,
		baseURL:  strings.TrimRight(baseURL, "/"),
		notifier: notifier,
		now:      time.Now,
	}
}

// Publish stores sub as a published article.
func (s *Service) Publish(ctx context.Context, sub models.Submission) (models.PublishedArticle, error) {
	return s.save(ctx, sub, models.StatusPublished)
}

// SaveDraft stores sub as a draft.
func (s *Service) SaveDraft(ctx context.Context, sub models.Submission) (models.PublishedArticle, error) {
	return s.save(ctx, sub, models.StatusDraft)
}

func (s *Service) save(ctx context.Context, sub models.Submission, status string) (models.PublishedArticle, error) {
	if sub.OwnerID == "" {
		return models.PublishedArticle{}, errors.New("articles: submission has no owner")
	}
	a := sub.Article
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Content) == "" {
		return models.PublishedArticle{}, errors.New("articles: title and content are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()

	fm := markdown.Frontmatter{
		ID:              sub.ID,
		Owner:           sub.OwnerID,
		Status:          status,
		Title:           strings.TrimSpace(a.Title),
		MetaDescription: a.MetaDescription,
		Tags:            a.Tags,
		FeaturedImage:   a.FeaturedImage,
		CreatedAt:       now,
	}

	var path string
	if sub.ID != "" {
		existing, _, err := s.db.GetArticle(ctx, sub.ID)
		if err != nil {
			return models.PublishedArticle{}, err
		}
		if existing.OwnerID != sub.OwnerID {
			return models.PublishedArticle{}, fmt.Errorf("article %s: %w", sub.ID, apperr.ErrNotFound)
		}
		path = existing.Path
		fm.CreatedAt = existing.CreatedAt
		fm.PublishedAt = existing.PublishedAt
	} else {
		fm.ID = uuid.NewString()
		slug, err := s.uniqueSlug(ctx, sub.OwnerID, Slugify(fm.Title), fm.ID)
		if err != nil {
			return models.PublishedArticle{}, err
		}
		path = articlePath(sub.OwnerID, slug)
	}
	if status == models.StatusPublished && fm.PublishedAt == nil {
		fm.PublishedAt = &now
	}

	data, err := markdown.Compose(fm, a.Content)
	if err != nil {
		return models.PublishedArticle{}, err
	}
	if err := s.store.Write(path, data); err != nil {
		return models.PublishedArticle{}, err
	}
	ref, err := index.IndexFile(ctx, s.db, path, data, now)
	if err != nil {
		return models.PublishedArticle{}, err
	}
	s.changed(ref.OwnerID, ref.ID, KindSaved)

	return models.PublishedArticle{ID: fm.ID, URL: s.url(path), Status: status}, nil
}

func articlePath(owner, slug string) string {
	return owner + "/" + slug + ".md"
}

// uniqueSlug picks the first free variant of base. A slug is taken when the
// index knows it or a file already sits at the owner's path, so an unindexed
// file is never overwritten. Callers hold s.mu.
func (s *Service) uniqueSlug(ctx context.Context, owner, base, id string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		taken, err := s.db.SlugExists(ctx, slug, id)
		if err != nil {
			return "", err
		}
		if !taken {
			_, err := s.store.Read(articlePath(owner, slug))
			switch {
			case errors.Is(err, fs.ErrNotExist):
				return slug, nil
			case err != nil:
				return "", err
			}
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// ListRecent returns owner's most recently updated articles.
func (s *Service) ListRecent(ctx context.Context, owner string, limit int) ([]models.ArticleSummary, error) {
	items, _, err := s.List(ctx, owner, "", limit, 0)
	return items, err
}

// List returns one page of owner's articles, optionally filtered by status.
func (s *Service) List(ctx context.Context, owner, status string, limit, offset int) ([]models.ArticleSummary, int, error) {
	rows, total, err := s.db.ListArticles(ctx, owner, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.ArticleSummary, len(rows))
	for i, r := range rows {
		items[i] = s.summary(r)
	}
	return items, total, nil
}

// Get reads an article owned by owner.
func (s *Service) Get(ctx context.Context, owner, id string) (*models.ArticleDetail, error) {
	row, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	data, err := s.store.Read(row.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("article %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	doc, err := markdown.Parse(data)
	if err != nil {
		return nil, err
	}
	return &models.ArticleDetail{
		ArticleSummary: s.summary(row),
		Content:        doc.Body,
		Checksum:       storage.Checksum(data),
		CreatedAt:      row.CreatedAt,
		PublishedAt:    row.PublishedAt,
	}, nil
}

// Delete removes an article owned by owner from storage and index.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(row.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := s.db.DeleteArticle(ctx, id); err != nil {
		return err
	}
	s.changed(owner, id, KindDeleted)
	return nil
}

// Search runs a full-text search over owner's articles.
func (s *Service) Search(ctx context.Context, owner, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(ctx, owner, query, limit)
}

// Stats returns the dashboard counters for owner.
func (s *Service) Stats(ctx context.Context, owner string) (models.ArticleStats, error) {
	counts, err := s.db.CountByStatus(ctx, owner)
	if err != nil {
		return models.ArticleStats{}, err
	}
	st := models.ArticleStats{
		Published: counts[models.StatusPublished],
		Drafts:    counts[models.StatusDraft],
	}
	for _, n := range counts {
		st.Total += n
	}
	return st, nil
}

func (s *Service) owned(ctx context.Context, owner, id string) (index.ArticleRow, error) {
	row, _, err := s.db.GetArticle(ctx, id)
	if err != nil {
		return index.ArticleRow{}, err
	}
	if row.OwnerID != owner {
		return index.ArticleRow{}, fmt.Errorf("article %s: %w", id, apperr.ErrNotFound)
	}
	return row, nil
}

func (s *Service) summary(r index.ArticleRow) models.ArticleSummary {
	return models.ArticleSummary{
		ID:              r.ID,
		Title:           r.Title,
		Status:          r.Status,
		MetaDescription: r.MetaDescription,
		Tags:            nonNilSlice(r.Tags),
		FeaturedImage:   r.FeaturedImage,
		URL:             s.url(r.Path),
		UpdatedAt:       r.UpdatedAt,
	}
}

// url maps "owner/slug.md" to baseURL/slug.
func (s *Service) url(path string) string {
	slug := path[strings.LastIndex(path, "/")+1:]
	return s.baseURL + "/" + strings.TrimSuffix(slug, ".md")
}

func (s *Service) changed(owner, id, kind string) {
	if s.notifier != nil && owner != "" {
		s.notifier.ArticleChanged(owner, id, kind)
	}
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
