package index

import (
	"context"
	"time"

	"github.com/starford/articlegen/internal/models"
)

// ArticleIndex defines the article operations of the index.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ArticleIndex interface {
	UpsertArticle(ctx context.Context, a ArticleRow, body string) error
	GetArticle(ctx context.Context, id string) (ArticleRow, string, error)
	ListArticles(ctx context.Context, owner, status string, limit, offset int) ([]ArticleRow, int, error)
	CountByStatus(ctx context.Context, owner string) (map[string]int, error)
	DeleteArticle(ctx context.Context, id string) error
	DeleteByPath(ctx context.Context, path string) (Ref, error)
	SlugExists(ctx context.Context, slug, exceptID string) (bool, error)
	GetChecksum(ctx context.Context, path string) (string, error)
	AllChecksums(ctx context.Context) (map[string]string, error)
	Search(ctx context.Context, owner, query string, limit int) ([]SearchResult, error)
}

// UserIndex defines the account and token operations of the index.
type UserIndex interface {
	CreateUser(ctx context.Context, u models.User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (models.User, string, error)
	User(ctx context.Context, id string) (models.User, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	TokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Verify *DB satisfies both interfaces at compile time.
var (
	_ ArticleIndex = (*DB)(nil)
	_ UserIndex    = (*DB)(nil)
)
