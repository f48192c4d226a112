package wizard

import (
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/articlegen/internal/images"
	"github.com/starford/articlegen/internal/models"
)

var (
	audiences = []any{
		models.AudienceGeneral, models.AudienceProfessional,
		models.AudienceAcademic, models.AudienceCasual,
	}
	lengths      = []any{models.LengthShort, models.LengthMedium, models.LengthLong}
	contentTypes = []any{
		models.ContentHowTo, models.ContentListicle, models.ContentOpinion,
		models.ContentNews, models.ContentReview, models.ContentTutorial,
	}
	tones = []any{
		models.ToneProfessional, models.ToneCasual, models.ToneFriendly,
		models.ToneAuthoritative, models.ToneConversational, models.ToneTechnical,
	}
)

// validateOutline checks the fields of the outline form. Enum fields may be
// left empty.
func validateOutline(req models.OutlineRequest) error {
	return fieldErrors(outlineRules(req))
}

// validateArticle checks the article form and the edited outline text.
func validateArticle(req models.ArticleRequest, editedOutline string) error {
	errs := validation.Errors{
		"tone":    validation.Validate(req.Tone, validation.In(tones...).Error("unknown tone")),
		"outline": validation.Validate(strings.TrimSpace(editedOutline), validation.Required.Error("outline cannot be empty")),
	}
	return fieldErrors(errs)
}

// validatePatch checks the fields a review-form patch sets. Title and content
// may be changed but not blanked; an empty featured image clears it.
func validatePatch(p FinalPatch) error {
	errs := validation.Errors{}
	if p.Title != nil {
		errs["title"] = validation.Validate(strings.TrimSpace(*p.Title), validation.Required.Error("title cannot be empty"))
	}
	if p.Content != nil {
		errs["content"] = validation.Validate(strings.TrimSpace(*p.Content), validation.Required.Error("content cannot be empty"))
	}
	if p.FeaturedImage != nil {
		errs["featured_image"] = validateImageRef(*p.FeaturedImage)
	}
	return fieldErrors(errs)
}

// ValidateFinal checks a resolved article before it is stored. It returns a
// *ValidationError naming the offending fields.
func ValidateFinal(a models.FinalArticle) error {
	return fieldErrors(validation.Errors{
		"title":          validation.Validate(strings.TrimSpace(a.Title), validation.Required.Error("title cannot be empty")),
		"content":        validation.Validate(strings.TrimSpace(a.Content), validation.Required.Error("content cannot be empty")),
		"featured_image": validateImageRef(a.FeaturedImage),
	})
}

// validateImageRef accepts an uploaded image path or an absolute http(s) URL.
func validateImageRef(ref string) error {
	if ref == "" {
		return nil
	}
	if name, ok := strings.CutPrefix(ref, images.URLPrefix); ok {
		if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
			return errors.New("must name an uploaded image")
		}
		return nil
	}
	return validation.Validate(ref,
		is.URL.Error("must be an http(s) URL or an uploaded image"),
		validation.By(httpURL),
	)
}

func httpURL(v any) error {
	u, err := url.Parse(v.(string))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http(s) URL or an uploaded image")
	}
	return nil
}

func outlineRules(req models.OutlineRequest) validation.Errors {
	return validation.Errors{
		"title":        validation.Validate(strings.TrimSpace(req.Title), validation.Required.Error("title is required")),
		"instructions": validation.Validate(strings.TrimSpace(req.Instructions), validation.Required.Error("instructions are required")),
		"audience":     validation.Validate(req.Audience, validation.In(audiences...).Error("unknown audience")),
		"length":       validation.Validate(req.Length, validation.In(lengths...).Error("unknown length")),
		"content_type": validation.Validate(req.ContentType, validation.In(contentTypes...).Error("unknown content type")),
	}
}

// fieldErrors converts ozzo errors into a ValidationError, or nil.
func fieldErrors(errs validation.Errors) error {
	err := errs.Filter()
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"form": err.Error()}}
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for field, e := range verrs {
		out.Fields[field] = e.Error()
	}
	return out
}

// normalizeList trims entries, drops blanks and duplicates, and keeps the
// first-seen order.
func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
