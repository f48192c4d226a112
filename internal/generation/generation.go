// Package generation produces article outlines and drafts, either from
// static templates or from an OpenAI-compatible chat model.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/articlegen/internal/models"
)

// Providers.
const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
)

// Service is the contract the wizard depends on.
type Service interface {
	GenerateOutline(ctx context.Context, req models.OutlineRequest) (string, error)
	GenerateArticle(ctx context.Context, req models.ArticleRequest, outline string) (string, error)
}

// Settings selects and configures a provider.
type Settings struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MockDelay time.Duration
}

// New returns the provider named in s.
func New(s Settings) (Service, error) {
	switch s.Provider {
	case "", ProviderMock:
		return NewMock(s.MockDelay), nil
	case ProviderOpenAI:
		return NewOpenAI(s)
	default:
		return nil, fmt.Errorf("generation: unknown provider %q", s.Provider)
	}
}
