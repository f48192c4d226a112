package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/articlegen/internal/articles"
	"github.com/starford/articlegen/internal/auth"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/sse"
	"github.com/starford/articlegen/internal/validation"
	"github.com/starford/articlegen/internal/wizard"
)

const recentLimit = 5

// Handler holds API route handlers.
type Handler struct {
	auth     *auth.Service
	articles *articles.Service
	wizards  *wizard.Registry
	broker   *sse.Broker
}

// NewHandler creates a new Handler.
func NewHandler(a *auth.Service, arts *articles.Service, wizards *wizard.Registry, broker *sse.Broker) *Handler {
	return &Handler{auth: a, articles: arts, wizards: wizards, broker: broker}
}

// Signup handles POST /api/auth/signup.
//
//	@Summary	Create an account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		auth.SignupForm	true	"Signup form"
//	@Success	201		{object}	SignupResponse
//	@Failure	400		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Router		/auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var form auth.SignupForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, "signup", err)
		return
	}
	sess, err := h.auth.SignUp(r.Context(), form.Email, form.Password, form.FullName)
	if err != nil {
		writeError(w, "signup", err)
		return
	}
	writeJSON(w, http.StatusCreated, SignupResponse{
		User:    sess.User,
		Message: "Account created. Please sign in.",
	})
}

// Login handles POST /api/auth/login.
//
//	@Summary	Sign in and receive a bearer token
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		auth.LoginForm	true	"Credentials"
//	@Success	200		{object}	LoginResponse
//	@Failure	401		{object}	errResponse
//	@Router		/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var form auth.LoginForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, "login", err)
		return
	}
	sess, err := h.auth.SignIn(r.Context(), form.Email, form.Password, form.RememberMe)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// PasswordCheck handles POST /api/auth/password-check. It evaluates the
// signup password rules without creating anything.
func (h *Handler) PasswordCheck(w http.ResponseWriter, r *http.Request) {
	var req PasswordCheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := validation.IsPasswordStrong(req.Password)
	unmet := s.Unmet()
	if unmet == nil {
		unmet = []string{}
	}
	writeJSON(w, http.StatusOK, PasswordCheckResponse{
		Strength:   s,
		Acceptable: s.Acceptable(),
		Unmet:      unmet,
		Match:      validation.PasswordsMatch(req.Password, req.ConfirmPassword),
	})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(r.Context(), tokenFrom(r)); err != nil {
		writeError(w, "logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r))
}

// Dashboard handles GET /api/dashboard.
//
//	@Summary	Article counters and the most recent articles
//	@Tags		articles
//	@Produce	json
//	@Success	200	{object}	DashboardResponse
//	@Security	BearerAuth
//	@Router		/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r)
	stats, err := h.articles.Stats(r.Context(), u.ID)
	if err != nil {
		writeError(w, "dashboard stats", err)
		return
	}
	recent, err := h.articles.ListRecent(r.Context(), u.ID, recentLimit)
	if err != nil {
		writeError(w, "dashboard recent", err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{User: u, Stats: stats, Recent: recent})
}

// ListArticles handles GET /api/articles.
//
//	@Summary	List the caller's articles
//	@Tags		articles
//	@Produce	json
//	@Param		limit	query		int		false	"Page size"
//	@Param		offset	query		int		false	"Page offset"
//	@Param		status	query		string	false	"Filter by status"	Enums(draft, published)
//	@Success	200		{object}	ArticleListResponse
//	@Security	BearerAuth
//	@Router		/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	status := q.Get("status")
	if status != "" && status != models.StatusDraft && status != models.StatusPublished {
		writeJSON(w, http.StatusBadRequest, errorBody("status must be draft or published"))
		return
	}

	items, total, err := h.articles.List(r.Context(), userFrom(r).ID, status, limit, offset)
	if err != nil {
		writeError(w, "list articles", err)
		return
	}
	writeJSON(w, http.StatusOK, ArticleListResponse{Articles: items, Total: total})
}

// GetArticle handles GET /api/articles/{id}.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Get(r.Context(), userFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get article", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteArticle handles DELETE /api/articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.articles.Delete(r.Context(), userFrom(r).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete article", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary	Full-text search across the caller's articles
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	hits, err := h.articles.Search(r.Context(), userFrom(r).ID, q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	results := make([]SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = SearchResult{ID: hit.ID, Title: hit.Title, Snippet: hit.Snippet}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Events handles GET /api/events.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.broker.Serve(w, r, userFrom(r).ID)
}
