package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/articlegen/internal/articles"
	"github.com/starford/articlegen/internal/auth"
	"github.com/starford/articlegen/internal/images"
	"github.com/starford/articlegen/internal/sse"
	"github.com/starford/articlegen/internal/wizard"
)

// Deps are the services the API is built on.
type Deps struct {
	Auth     *auth.Service
	Articles *articles.Service
	Wizards  *wizard.Registry
	Broker   *sse.Broker
	Images   *images.Store
}

// NewRouter creates a chi router with all API routes mounted. Signup, login,
// the password check and image downloads are public; everything else
// requires a bearer token.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Auth, d.Articles, d.Wizards, d.Broker)
	ih := NewImageHandler(d.Images)

	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	})

	r.Post("/auth/signup", h.Signup)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/password-check", h.PasswordCheck)
	r.Get("/images/{filename}", ih.ServeFile)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.Auth))

		r.Post("/auth/logout", h.Logout)
		r.Get("/auth/me", h.Me)

		r.Get("/dashboard", h.Dashboard)
		r.Get("/articles", h.ListArticles)
		r.Get("/articles/{id}", h.GetArticle)
		r.Delete("/articles/{id}", h.DeleteArticle)
		r.Get("/search", h.Search)

		r.Post("/wizard", h.CreateWizard)
		r.Route("/wizard/{id}", func(r chi.Router) {
			r.Get("/", h.GetWizard)
			r.Delete("/", h.DeleteWizard)
			r.Post("/outline", h.SubmitOutline)
			r.Post("/article", h.SubmitArticle)
			r.Patch("/final", h.EditFinal)
			r.Post("/draft", h.SaveDraft)
			r.Post("/publish", h.Publish)
			r.Post("/back", h.GoBack)
			r.Post("/cancel", h.Cancel)
			r.Get("/preview", h.Preview)
		})

		r.Post("/images", ih.Upload)

		if d.Broker != nil {
			r.Get("/events", h.Events)
		}
	})

	return r
}

// NotFound is the JSON 404 for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}
