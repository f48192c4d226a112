package articles

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/index"
	"github.com/starford/articlegen/internal/markdown"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) ArticleChanged(owner, id, kind string) {
	r.mu.Lock()
	r.events = append(r.events, owner+":"+kind)
	r.mu.Unlock()
}

func testService(t *testing.T) (*Service, *storage.FS, *recorder) {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = fs.Close() })
	f, err := os.CreateTemp("", "articlegen-articles-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	db, err := index.Open(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	rec := &recorder{}
	return NewService(fs, db, "https://blog.example.com/", rec), fs, rec
}

func submission(owner, title string) models.Submission {
	return models.Submission{
		OwnerID: owner,
		Article: models.FinalArticle{
			ArticleRequest:  models.ArticleRequest{OutlineRequest: models.OutlineRequest{Title: title}},
			Content:         "# " + title + "\n\nBody text.",
			MetaDescription: "Short description.",
			Tags:            []string{"go"},
		},
	}
}

func TestPublish_WritesFileAndIndexes(t *testing.T) {
	svc, fs, rec := testService(t)
	ctx := context.Background()

	res, err := svc.Publish(ctx, submission("u1", "10 Tips for Go"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.URL != "https://blog.example.com/10-tips-for-go" {
		t.Errorf("url = %q", res.URL)
	}
	if res.Status != models.StatusPublished || res.ID == "" {
		t.Errorf("result = %+v", res)
	}

	data, err := fs.Read("u1/10-tips-for-go.md")
	if err != nil {
		t.Fatalf("file not written: %v", err)
	}
	doc, _ := markdown.Parse(data)
	if doc.Frontmatter == nil || doc.Frontmatter.ID != res.ID || doc.Frontmatter.PublishedAt == nil {
		t.Errorf("frontmatter = %+v", doc.Frontmatter)
	}

	got, err := svc.Get(ctx, "u1", res.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "10 Tips for Go" || !strings.Contains(got.Content, "Body text.") {
		t.Errorf("detail = %+v", got)
	}
	if len(rec.events) != 1 || rec.events[0] != "u1:"+KindSaved {
		t.Errorf("events = %v", rec.events)
	}
}

func TestSaveDraftThenPublish_SameArticle(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	sub := submission("u1", "Draft First")
	draft, err := svc.SaveDraft(ctx, sub)
	if err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	sub.ID = draft.ID
	sub.Article.Title = "Draft First, Renamed"
	pub, err := svc.Publish(ctx, sub)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if pub.ID != draft.ID || pub.URL != draft.URL {
		t.Errorf("publish %+v does not reuse draft %+v", pub, draft)
	}

	stats, err := svc.Stats(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || stats.Published != 1 || stats.Drafts != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPublish_UniqueSlugs(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	a, _ := svc.Publish(ctx, submission("u1", "Same Title"))
	b, err := svc.Publish(ctx, submission("u2", "Same Title"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if a.URL == b.URL {
		t.Errorf("duplicate url %q", a.URL)
	}
	if !strings.HasSuffix(b.URL, "/same-title-2") {
		t.Errorf("second url = %q", b.URL)
	}
}

func TestPublish_ConcurrentSameTitle(t *testing.T) {
	svc, fs, _ := testService(t)
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	results := make([]models.PublishedArticle, n)
	errs := make([]error, n)
	for i := range n {
		owner := "u1"
		if i%2 == 1 {
			owner = "u2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Publish(ctx, submission(owner, "Same Title"))
		}()
	}
	wg.Wait()

	urls := make(map[string]bool)
	for i, res := range results {
		if errs[i] != nil {
			t.Fatalf("publish %d: %v", i, errs[i])
		}
		if urls[res.URL] {
			t.Errorf("url %s returned twice", res.URL)
		}
		urls[res.URL] = true
	}

	for _, owner := range []string{"u1", "u2"} {
		items, total, err := svc.List(ctx, owner, "", n, 0)
		if err != nil {
			t.Fatal(err)
		}
		if total != n/2 {
			t.Errorf("%s has %d articles, want %d", owner, total, n/2)
		}
		for _, it := range items {
			row, _, err := svc.db.GetArticle(ctx, it.ID)
			if err != nil {
				t.Fatal(err)
			}
			data, err := fs.Read(row.Path)
			if err != nil {
				t.Fatalf("read %s: %v", row.Path, err)
			}
			doc, _ := markdown.Parse(data)
			if doc.Frontmatter == nil || doc.Frontmatter.ID != it.ID {
				t.Errorf("%s holds a different article than %s", row.Path, it.ID)
			}
		}
	}
}

func TestPublish_SkipsUnindexedFile(t *testing.T) {
	svc, fs, _ := testService(t)
	ctx := context.Background()
	if err := fs.Write("u1/hand-written.md", []byte("# Hand Written\n\nkeep me")); err != nil {
		t.Fatal(err)
	}

	res, err := svc.Publish(ctx, submission("u1", "Hand Written"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if !strings.HasSuffix(res.URL, "/hand-written-2") {
		t.Errorf("url = %q", res.URL)
	}
	data, _ := fs.Read("u1/hand-written.md")
	if !strings.Contains(string(data), "keep me") {
		t.Errorf("existing file overwritten: %q", data)
	}
}

func TestPublish_ForeignIDRejected(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	res, _ := svc.SaveDraft(ctx, submission("u1", "Mine"))

	sub := submission("u2", "Hijack")
	sub.ID = res.ID
	if _, err := svc.Publish(ctx, sub); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOwnerScoping(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	res, _ := svc.Publish(ctx, submission("u1", "Private"))

	if _, err := svc.Get(ctx, "u2", res.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get err = %v", err)
	}
	if err := svc.Delete(ctx, "u2", res.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Delete err = %v", err)
	}
	items, _ := svc.ListRecent(ctx, "u2", 5)
	if len(items) != 0 {
		t.Errorf("u2 sees %d articles", len(items))
	}
}

func TestDelete(t *testing.T) {
	svc, fs, rec := testService(t)
	ctx := context.Background()
	res, _ := svc.Publish(ctx, submission("u1", "Gone Soon"))

	if err := svc.Delete(ctx, "u1", res.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := fs.Read("u1/gone-soon.md"); err == nil {
		t.Error("file still on disk")
	}
	if _, err := svc.Get(ctx, "u1", res.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
	if rec.events[len(rec.events)-1] != "u1:"+KindDeleted {
		t.Errorf("events = %v", rec.events)
	}
}

func TestListAndSearch(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.SaveDraft(ctx, submission("u1", "Alpha"))
	_, _ = svc.Publish(ctx, submission("u1", "Beta"))

	items, total, err := svc.List(ctx, "u1", models.StatusDraft, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || items[0].Title != "Alpha" || items[0].Status != models.StatusDraft {
		t.Errorf("drafts = %+v", items)
	}

	hits, err := svc.Search(ctx, "u1", "Beta", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSave_RequiresTitleAndContent(t *testing.T) {
	svc, _, _ := testService(t)
	sub := submission("u1", "x")
	sub.Article.Content = "  "
	if _, err := svc.Publish(context.Background(), sub); err == nil {
		t.Error("expected error for empty content")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"10 Tips for Go!":       "10-tips-for-go",
		"  Crème Brûlée  ":      "creme-brulee",
		"???":                   "article",
		"Already-slugged-title": "already-slugged-title",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Slugify(strings.Repeat("a ", 100)); len(got) > maxSlugLen || strings.HasSuffix(got, "-") {
		t.Errorf("long slug = %q", got)
	}
}
