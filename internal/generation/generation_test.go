package generation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/models"
)

func TestMock_Templates(t *testing.T) {
	m := NewMock(0)
	ctx := context.Background()

	outline, err := m.GenerateOutline(ctx, models.OutlineRequest{Title: "10 Tips"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(outline, "# 10 Tips\n"))
	assert.Contains(t, outline, "## Conclusion")

	req := models.ArticleRequest{
		OutlineRequest: models.OutlineRequest{Title: "10 Tips"},
		Keywords:       []string{"golang", "testing"},
	}
	article, err := m.GenerateArticle(ctx, req, outline)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(article, "# 10 Tips\n"))
	assert.Contains(t, article, "- golang\n")
	assert.Contains(t, article, "## Conclusion")
}

func TestMock_HonoursCancellation(t *testing.T) {
	m := NewMock(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.GenerateOutline(ctx, models.OutlineRequest{Title: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNew_Providers(t *testing.T) {
	svc, err := New(Settings{})
	require.NoError(t, err)
	assert.IsType(t, &Mock{}, svc)

	_, err = New(Settings{Provider: ProviderOpenAI})
	assert.Error(t, err, "api key is required")

	_, err = New(Settings{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	p := OutlinePrompt(models.OutlineRequest{
		Title: "Go tips", Instructions: "basics", Audience: models.AudienceCasual, Length: models.LengthLong,
	})
	assert.Contains(t, p.User, "Title: Go tips")
	assert.Contains(t, p.User, "casual readers")
	assert.Contains(t, p.User, "1500+ words")

	a := ArticlePrompt(models.ArticleRequest{
		OutlineRequest: models.OutlineRequest{Title: "Go tips"},
		Tone:           models.ToneTechnical,
		Keywords:       []string{"go", "tips"},
		Citations:      true,
	}, "# Go tips\n## One")
	assert.Contains(t, a.User, "Tone: technical")
	assert.Contains(t, a.User, "go, tips")
	assert.Contains(t, a.User, "References")
	assert.Contains(t, a.User, "## One")
}

func newOpenAIServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAI_Completes(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusOK, "  # Outline\n")
	o, err := NewOpenAI(Settings{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	out, err := o.GenerateOutline(context.Background(), models.OutlineRequest{Title: "t", Instructions: "i"})
	require.NoError(t, err)
	assert.Equal(t, "# Outline", out)
}

func TestOpenAI_ServerErrorIsUnavailable(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusServiceUnavailable, "")
	o, err := NewOpenAI(Settings{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = o.GenerateArticle(context.Background(), models.ArticleRequest{}, "outline")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnavailable), "got %v", err)
}

func TestOpenAI_ClientErrorIsNotUnavailable(t *testing.T) {
	srv := newOpenAIServer(t, http.StatusBadRequest, "")
	o, err := NewOpenAI(Settings{APIKey: "k", Model: "test-model", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	_, err = o.GenerateOutline(context.Background(), models.OutlineRequest{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, apperr.ErrUnavailable))
}
