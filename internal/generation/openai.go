package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/models"
)

// OpenAI generates text with the chat completions API.
type OpenAI struct {
	model  string
	client openai.Client
}

// NewOpenAI builds a client from s. APIKey and Model are required.
func NewOpenAI(s Settings, extra ...option.RequestOption) (*OpenAI, error) {
	if s.APIKey == "" {
		return nil, errors.New("generation: openai api key missing; provide generation.api_key")
	}
	if s.Model == "" {
		return nil, errors.New("generation: openai model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(s.APIKey), option.WithMaxRetries(0)}
	if s.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(s.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAI{model: s.Model, client: openai.NewClient(opts...)}, nil
}

// GenerateOutline implements Service.
func (o *OpenAI) GenerateOutline(ctx context.Context, req models.OutlineRequest) (string, error) {
	return o.complete(ctx, OutlinePrompt(req))
}

// GenerateArticle implements Service.
func (o *OpenAI) GenerateArticle(ctx context.Context, req models.ArticleRequest, outline string) (string, error) {
	return o.complete(ctx, ArticlePrompt(req, outline))
}

func (o *OpenAI) complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
	})
	if err != nil {
		return "", classifyAPIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("generation: openai returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyAPIError tags capacity and transport failures with
// apperr.ErrUnavailable. Context errors pass through untouched.
func classifyAPIError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("generation: openai: %w", ctxErr)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return fmt.Errorf("generation: openai status %d: %w", apiErr.StatusCode, apperr.ErrUnavailable)
		}
		return fmt.Errorf("generation: openai status %d: %w", apiErr.StatusCode, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("generation: openai: %v: %w", err, apperr.ErrUnavailable)
	}
	return fmt.Errorf("generation: openai: %w", err)
}
