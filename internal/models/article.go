// Package models defines the domain types shared by the wizard, the article
// store and the HTTP layer.
package models

import "time"

// Audience is the target readership of an article.
type Audience string

const (
	AudienceGeneral      Audience = "general"
	AudienceProfessional Audience = "professional"
	AudienceAcademic     Audience = "academic"
	AudienceCasual       Audience = "casual"
)

// Length is the requested article length bucket.
type Length string

const (
	LengthShort  Length = "short"  // 500-800 words
	LengthMedium Length = "medium" // 800-1500 words
	LengthLong   Length = "long"   // 1500+ words
)

// ContentType is the article format.
type ContentType string

const (
	ContentHowTo    ContentType = "how-to"
	ContentListicle ContentType = "listicle"
	ContentOpinion  ContentType = "opinion"
	ContentNews     ContentType = "news"
	ContentReview   ContentType = "review"
	ContentTutorial ContentType = "tutorial"
)

// Tone is the voice the article is written in.
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneCasual         Tone = "casual"
	ToneFriendly       Tone = "friendly"
	ToneAuthoritative  Tone = "authoritative"
	ToneConversational Tone = "conversational"
	ToneTechnical      Tone = "technical"
)

// OutlineRequest is the input of the first wizard step. Enum fields left
// empty are unset.
type OutlineRequest struct {
	Title        string      `json:"title"`
	Instructions string      `json:"instructions"`
	Audience     Audience    `json:"audience,omitempty"`
	Length       Length      `json:"length,omitempty"`
	Industry     string      `json:"industry,omitempty"`
	ContentType  ContentType `json:"content_type,omitempty"`
}

// ArticleRequest is the input of the second wizard step.
type ArticleRequest struct {
	OutlineRequest
	Tone                   Tone     `json:"tone,omitempty"`
	Keywords               []string `json:"keywords"`
	Citations              bool     `json:"citations"`
	AdditionalInstructions string   `json:"additional_instructions,omitempty"`
}

// FinalArticle is the article as it will be published.
type FinalArticle struct {
	ArticleRequest
	Content         string   `json:"content"`
	MetaDescription string   `json:"meta_description"`
	Tags            []string `json:"tags"`
	FeaturedImage   string   `json:"featured_image,omitempty"`
}

// Article statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Submission is a FinalArticle bound to its owner. ID is empty until the
// article has been stored once.
type Submission struct {
	ID      string
	OwnerID string
	Article FinalArticle
}

// PublishedArticle is what the store returns after saving an article.
type PublishedArticle struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Status string `json:"status"`
}

// ArticleSummary is a lightweight item for dashboard listings.
type ArticleSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	MetaDescription string    `json:"meta_description"`
	Tags            []string  `json:"tags"`
	FeaturedImage   string    `json:"featured_image,omitempty"`
	URL             string    `json:"url"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ArticleDetail is the full stored article.
type ArticleDetail struct {
	ArticleSummary
	Content     string     `json:"content"`
	Checksum    string     `json:"checksum"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ArticleStats are the dashboard counters.
type ArticleStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Drafts    int `json:"drafts"`
}

// FileMeta describes an article file on disk.
type FileMeta struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}
