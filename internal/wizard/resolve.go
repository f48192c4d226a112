package wizard

import (
	"slices"
	"strings"

	"github.com/starford/articlegen/internal/markdown"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/validation"
)

// FinalPatch is a partial update of the review form. Nil fields are left as
// they are.
type FinalPatch struct {
	Title           *string   `json:"title,omitempty"`
	Content         *string   `json:"content,omitempty"`
	MetaDescription *string   `json:"meta_description,omitempty"`
	Tags            *[]string `json:"tags,omitempty"`
	FeaturedImage   *string   `json:"featured_image,omitempty"`
}

// Edits holds the review fields the user has overridden. A nil field means
// the value is derived from earlier steps.
type Edits struct {
	Title           *string
	Content         *string
	MetaDescription *string
	Tags            []string
	TagsSet         bool
	FeaturedImage   *string
}

// apply merges p into e, clamping the meta description and normalizing tags.
func (e *Edits) apply(p FinalPatch) {
	if p.Title != nil {
		e.Title = ptr(*p.Title)
	}
	if p.Content != nil {
		e.Content = ptr(*p.Content)
	}
	if p.MetaDescription != nil {
		e.MetaDescription = ptr(validation.ClampMetaDescription(*p.MetaDescription))
	}
	if p.Tags != nil {
		e.Tags = normalizeList(*p.Tags)
		e.TagsSet = true
	}
	if p.FeaturedImage != nil {
		e.FeaturedImage = ptr(*p.FeaturedImage)
	}
}

func (e Edits) clone() Edits {
	c := e
	c.Title = clonePtr(e.Title)
	c.Content = clonePtr(e.Content)
	c.MetaDescription = clonePtr(e.MetaDescription)
	c.FeaturedImage = clonePtr(e.FeaturedImage)
	c.Tags = slices.Clone(e.Tags)
	return c
}

// Resolve computes the article as it would be published. Fields the user
// has not edited fall back to the outline title, the generated draft, a
// digest of the draft and the article keywords.
func Resolve(edits Edits, article models.ArticleRequest, outline models.OutlineRequest, draft string) models.FinalArticle {
	req := article
	req.OutlineRequest = outline
	req.Keywords = slices.Clone(article.Keywords)

	out := models.FinalArticle{
		ArticleRequest: req,
		Content:        draft,
		Tags:           normalizeList(article.Keywords),
	}
	out.Title = strings.TrimSpace(outline.Title)
	if edits.Title != nil {
		out.Title = *edits.Title
	}
	if edits.Content != nil {
		out.Content = *edits.Content
	}
	if edits.MetaDescription != nil {
		out.MetaDescription = *edits.MetaDescription
	} else {
		out.MetaDescription = markdown.Digest(out.Content)
	}
	out.MetaDescription = validation.ClampMetaDescription(out.MetaDescription)
	if edits.TagsSet {
		out.Tags = slices.Clone(edits.Tags)
	}
	if edits.FeaturedImage != nil {
		out.FeaturedImage = *edits.FeaturedImage
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
