package markdown

import (
	"strings"
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nid: a1\nowner: u1\nstatus: draft\ntitle: Hello\ntags:\n  - go\n  - writing\n---\n# Hello\nBody text.\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Frontmatter == nil {
		t.Fatal("expected frontmatter")
	}
	if doc.Frontmatter.ID != "a1" || doc.Frontmatter.Owner != "u1" || doc.Frontmatter.Status != "draft" {
		t.Errorf("frontmatter = %+v", doc.Frontmatter)
	}
	if doc.Title != "Hello" {
		t.Errorf("title = %q, want %q", doc.Title, "Hello")
	}
	if len(doc.Frontmatter.Tags) != 2 || doc.Frontmatter.Tags[1] != "writing" {
		t.Errorf("tags = %v", doc.Frontmatter.Tags)
	}
	if doc.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	doc, err := Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %+v", doc.Frontmatter)
	}
	if doc.Title != "Just a heading" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Frontmatter != nil {
		t.Error("invalid YAML should yield nil frontmatter")
	}
	if doc.Body != string(input) {
		t.Errorf("body should be the whole input, got %q", doc.Body)
	}
}

func TestComposeRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fm := Frontmatter{
		ID:              "id-1",
		Owner:           "owner-1",
		Status:          "published",
		Title:           "Ten Tips",
		MetaDescription: "Short summary.",
		Tags:            []string{"seo"},
		CreatedAt:       created,
		PublishedAt:     &created,
	}
	data, err := Compose(fm, "\n# Ten Tips\n\nIntro paragraph.\n\n")
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasPrefix(string(data), "---\n") {
		t.Errorf("missing leading delimiter: %q", data)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter == nil || doc.Frontmatter.ID != "id-1" || doc.Frontmatter.MetaDescription != "Short summary." {
		t.Fatalf("frontmatter = %+v", doc.Frontmatter)
	}
	if !doc.Frontmatter.CreatedAt.Equal(created) {
		t.Errorf("created_at = %v", doc.Frontmatter.CreatedAt)
	}
	if doc.Body != "# Ten Tips\n\nIntro paragraph.\n" {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestHeadings_SkipsFencedCode(t *testing.T) {
	body := "# Title\n## Intro\n```\n# not a heading\n```\n### Deep ##\n#hashtag\n"
	got := Headings(body)
	want := []Heading{{1, "Title"}, {2, "Intro"}, {3, "Deep"}}
	if len(got) != len(want) {
		t.Fatalf("headings = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("heading %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestDigest(t *testing.T) {
	body := "# Title\n\n*In today's landscape, content matters.\nIt really does.*\n\n## Next\nMore."
	got := Digest(body)
	if got != "In today's landscape, content matters. It really does." {
		t.Errorf("digest = %q", got)
	}
}

func TestDigest_OnlyStructure(t *testing.T) {
	if got := Digest("# A\n- item\n## B\n"); got != "" {
		t.Errorf("digest = %q, want empty", got)
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("# Hi\n\n**bold** and a [link](https://example.com)\n\n<script>alert(1)</script>\n")
	if err != nil {
		t.Fatalf("RenderHTML: %v", err)
	}
	for _, want := range []string{"<h1", "Hi</h1>", "<strong>bold</strong>", `href="https://example.com"`} {
		if !strings.Contains(html, want) {
			t.Errorf("html missing %q: %s", want, html)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("raw HTML should be omitted")
	}
}
