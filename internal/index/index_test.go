package index

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "articlegen-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(id, owner, path, status string, updated time.Time) ArticleRow {
	return ArticleRow{
		ID: id, OwnerID: owner, Path: path, Slug: id, Title: "Title " + id,
		Status: status, Checksum: "cs-" + id, Tags: []string{"go"},
		CreatedAt: updated, UpdatedAt: updated,
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"users", "articles", "revoked_tokens"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestUpsertAndGetArticle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	pub := now.Add(time.Minute)
	r := row("a1", "u1", "u1/hello.md", models.StatusPublished, now)
	r.PublishedAt = &pub
	r.MetaDescription = "desc"

	if err := db.UpsertArticle(ctx, r, "Hello body"); err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}
	got, body, err := db.GetArticle(ctx, "a1")
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if body != "Hello body" || got.Title != "Title a1" || got.MetaDescription != "desc" {
		t.Errorf("got %+v body %q", got, body)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "go" {
		t.Errorf("tags = %v", got.Tags)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(pub) {
		t.Errorf("published_at = %v, want %v", got.PublishedAt, pub)
	}

	cs, err := db.GetChecksum(ctx, "u1/hello.md")
	if err != nil || cs != "cs-a1" {
		t.Errorf("checksum = %q, %v", cs, err)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	db := testDB(t)
	_, _, err := db.GetArticle(context.Background(), "missing")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertMovesPath(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now()
	_ = db.UpsertArticle(ctx, row("a1", "u1", "u1/old.md", models.StatusDraft, now), "b")
	if err := db.UpsertArticle(ctx, row("a1", "u1", "u1/new.md", models.StatusDraft, now), "b"); err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}
	all, _ := db.AllChecksums(ctx)
	if _, ok := all["u1/old.md"]; ok {
		t.Error("old path still indexed")
	}
	if _, ok := all["u1/new.md"]; !ok {
		t.Error("new path not indexed")
	}
}

func TestUpsertPathConflict(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertArticle(ctx, row("a1", "u1", "u1/same.md", models.StatusDraft, time.Now()), "b")
	err := db.UpsertArticle(ctx, row("a2", "u1", "u1/same.md", models.StatusDraft, time.Now()), "b")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestListArticlesAndCounts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	base := time.Now().UTC()
	_ = db.UpsertArticle(ctx, row("a1", "u1", "u1/a1.md", models.StatusDraft, base.Add(-2*time.Hour)), "")
	_ = db.UpsertArticle(ctx, row("a2", "u1", "u1/a2.md", models.StatusPublished, base.Add(-time.Hour)), "")
	_ = db.UpsertArticle(ctx, row("a3", "u1", "u1/a3.md", models.StatusPublished, base), "")
	_ = db.UpsertArticle(ctx, row("b1", "u2", "u2/b1.md", models.StatusPublished, base), "")

	list, total, err := db.ListArticles(ctx, "u1", "", 2, 0)
	if err != nil {
		t.Fatalf("ListArticles: %v", err)
	}
	if total != 3 || len(list) != 2 {
		t.Fatalf("total=%d len=%d, want 3 and 2", total, len(list))
	}
	if list[0].ID != "a3" || list[1].ID != "a2" {
		t.Errorf("order = %s, %s", list[0].ID, list[1].ID)
	}

	drafts, total, _ := db.ListArticles(ctx, "u1", models.StatusDraft, 10, 0)
	if total != 1 || drafts[0].ID != "a1" {
		t.Errorf("drafts = %+v", drafts)
	}

	counts, err := db.CountByStatus(ctx, "u1")
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if counts[models.StatusDraft] != 1 || counts[models.StatusPublished] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

func TestDeleteArticle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertArticle(ctx, row("del", "u1", "u1/del.md", models.StatusDraft, time.Now()), "body")

	if err := db.DeleteArticle(ctx, "del"); err != nil {
		t.Fatalf("DeleteArticle: %v", err)
	}
	cs, _ := db.GetChecksum(ctx, "u1/del.md")
	if cs != "" {
		t.Errorf("deleted article still has checksum %q", cs)
	}
	if err := db.DeleteArticle(ctx, "del"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	ref, err := db.DeleteByPath(ctx, "u1/del.md")
	if err != nil || ref.ID != "" {
		t.Errorf("DeleteByPath on missing = %+v, %v", ref, err)
	}
}

func TestSearch_OwnerScoped(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	_ = db.UpsertArticle(ctx, row("s1", "u1", "u1/s1.md", models.StatusDraft, time.Now()), "uniqueword appears here")
	_ = db.UpsertArticle(ctx, row("s2", "u2", "u2/s2.md", models.StatusDraft, time.Now()), "uniqueword again")

	results, err := db.Search(ctx, "u1", "uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "s1" {
		t.Errorf("search results = %+v, want 1 hit for s1", results)
	}
}

func TestUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	u := models.User{ID: "u1", Name: "Ada", Email: "ada@example.com", CreatedAt: time.Now().UTC()}

	if err := db.CreateUser(ctx, u, "hash"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dup := u
	dup.ID = "u2"
	dup.Email = "ADA@example.com"
	if err := db.CreateUser(ctx, dup, "hash"); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v, want ErrAlreadyExists", err)
	}

	got, hash, err := db.UserByEmail(ctx, "ada@example.com")
	if err != nil || got.ID != "u1" || hash != "hash" {
		t.Errorf("UserByEmail = %+v, %q, %v", got, hash, err)
	}
	if _, err := db.User(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("User err = %v, want ErrNotFound", err)
	}
}

func TestRevokedTokens(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := db.RevokeToken(ctx, "old", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := db.RevokeToken(ctx, "live", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := db.TokenRevoked(ctx, "live"); !ok {
		t.Error("live token should be revoked")
	}
	if ok, _ := db.TokenRevoked(ctx, "other"); ok {
		t.Error("unknown token reported revoked")
	}

	n, err := db.PruneRevokedTokens(ctx, now)
	if err != nil || n != 1 {
		t.Errorf("pruned %d, %v; want 1", n, err)
	}
	if ok, _ := db.TokenRevoked(ctx, "live"); !ok {
		t.Error("live token pruned")
	}
}
