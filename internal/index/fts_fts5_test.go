//go:build sqlite_fts5

package index

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/starford/articlegen/internal/models"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM articles_fts`).Scan(&count); err != nil {
		t.Fatalf("articles_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	r := row("f1", "u1", "u1/fts.md", models.StatusDraft, time.Now())
	if err := db.UpsertArticle(ctx, r, "The service provides powerful full-text search capabilities."); err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}

	results, err := db.Search(ctx, "u1", "powerful", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ID != "f1" {
		t.Errorf("id = %q", results[0].ID)
	}
	if !strings.Contains(results[0].Snippet, "<b>powerful</b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}

	other, _ := db.Search(ctx, "u2", "powerful", 10)
	if len(other) != 0 {
		t.Errorf("other owner sees %d results", len(other))
	}
}

func TestFTS5_DeleteRemovesEntry(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertArticle(ctx, row("f2", "u1", "u1/gone.md", models.StatusDraft, time.Now()), "ephemeral content")
	_ = db.DeleteArticle(ctx, "f2")

	var n int
	_ = db.conn.QueryRow(`SELECT count(*) FROM articles_fts WHERE path = ?`, "u1/gone.md").Scan(&n)
	if n != 0 {
		t.Errorf("fts rows after delete = %d", n)
	}
}
