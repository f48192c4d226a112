package generation

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"
	"time"

	"github.com/starford/articlegen/internal/models"
)

//go:embed templates/*.md
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.md"))

// Mock renders fixed templates after an optional delay. It honours context
// cancellation while waiting.
type Mock struct {
	Delay time.Duration
}

// NewMock creates a mock generator.
func NewMock(delay time.Duration) *Mock {
	return &Mock{Delay: delay}
}

// GenerateOutline returns the outline template for req.Title.
func (m *Mock) GenerateOutline(ctx context.Context, req models.OutlineRequest) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return render("outline.md", req)
}

// GenerateArticle returns the article template for req.
func (m *Mock) GenerateArticle(ctx context.Context, req models.ArticleRequest, _ string) (string, error) {
	if err := m.wait(ctx); err != nil {
		return "", err
	}
	return render("article.md", req)
}

func (m *Mock) wait(ctx context.Context) error {
	if m.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(m.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("generation: render %s: %w", name, err)
	}
	return buf.String(), nil
}
