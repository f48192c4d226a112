package api

import (
	"github.com/starford/articlegen/internal/auth"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/validation"
	"github.com/starford/articlegen/internal/wizard"
)

// SignupResponse is returned after a successful signup. The client is sent
// to the login screen rather than signed in.
type SignupResponse struct {
	User    models.User `json:"user"`
	Message string      `json:"message" example:"Account created. Please sign in."`
}

// LoginResponse carries the bearer token.
type LoginResponse = auth.Session

// PasswordCheckRequest is the body of POST /auth/password-check.
type PasswordCheckRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// PasswordCheckResponse reports the live signup form rules.
type PasswordCheckResponse struct {
	Strength   validation.PasswordStrength `json:"strength"`
	Acceptable bool                        `json:"acceptable"`
	Unmet      []string                    `json:"unmet"`
	Match      bool                        `json:"match"`
}

// DashboardResponse is the dashboard: counters plus the most recent articles.
type DashboardResponse struct {
	User   models.User             `json:"user"`
	Stats  models.ArticleStats     `json:"stats"`
	Recent []models.ArticleSummary `json:"recent"`
}

// ArticleListResponse wraps paginated article listings.
type ArticleListResponse struct {
	Articles []models.ArticleSummary `json:"articles" validate:"required"`
	Total    int                     `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" example:"Hello" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// ArticleStepRequest is the body of POST /wizard/{id}/article.
type ArticleStepRequest struct {
	models.ArticleRequest
	Outline string `json:"outline"`
}

// GenerateResponse returns the generated text with the updated session.
type GenerateResponse struct {
	Text    string      `json:"text"`
	Session wizard.View `json:"session"`
}

// PersistResponse returns the stored article with the updated session.
type PersistResponse struct {
	Article models.PublishedArticle `json:"article"`
	Session wizard.View             `json:"session"`
}

// PreviewResponse is the resolved final article rendered to HTML.
type PreviewResponse struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ImageUploadResponse is returned after a successful image upload.
type ImageUploadResponse struct {
	Filename string `json:"filename" example:"3f2c....png" validate:"required"`
	Size     int64  `json:"size" example:"12345" validate:"required"`
	URL      string `json:"url" example:"/api/images/3f2c....png" validate:"required"`
}
