package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/articlegen/internal/markdown"
	"github.com/starford/articlegen/internal/models"
	"github.com/starford/articlegen/internal/wizard"
)

// session loads the caller's wizard session named in the URL. It writes the
// error response and returns nil when there is none.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *wizard.Controller {
	c, err := h.wizards.Get(userFrom(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "load wizard", err)
		return nil
	}
	return c
}

// CreateWizard handles POST /api/wizard.
//
//	@Summary	Open a new article wizard session
//	@Tags		wizard
//	@Produce	json
//	@Success	201	{object}	wizard.View
//	@Security	BearerAuth
//	@Router		/wizard [post]
func (h *Handler) CreateWizard(w http.ResponseWriter, r *http.Request) {
	c := h.wizards.Create(userFrom(r).ID)
	writeJSON(w, http.StatusCreated, c.View())
}

// GetWizard handles GET /api/wizard/{id}.
func (h *Handler) GetWizard(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// DeleteWizard handles DELETE /api/wizard/{id}. The session and any unsaved
// work are discarded.
func (h *Handler) DeleteWizard(w http.ResponseWriter, r *http.Request) {
	if err := h.wizards.Delete(userFrom(r).ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete wizard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitOutline handles POST /api/wizard/{id}/outline.
//
//	@Summary	Generate an outline and move to the draft step
//	@Tags		wizard
//	@Accept		json
//	@Produce	json
//	@Param		body	body		models.OutlineRequest	true	"Outline form"
//	@Success	200		{object}	GenerateResponse
//	@Failure	409		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Failure	502		{object}	errResponse
//	@Failure	504		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/wizard/{id}/outline [post]
func (h *Handler) SubmitOutline(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	var req models.OutlineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := c.SubmitOutline(r.Context(), req)
	if err != nil {
		writeError(w, "submit outline", err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Text: text, Session: c.View()})
}

// SubmitArticle handles POST /api/wizard/{id}/article.
func (h *Handler) SubmitArticle(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	var req ArticleStepRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	text, err := c.SubmitArticle(r.Context(), req.ArticleRequest, req.Outline)
	if err != nil {
		writeError(w, "submit article", err)
		return
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Text: text, Session: c.View()})
}

// EditFinal handles PATCH /api/wizard/{id}/final.
func (h *Handler) EditFinal(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	var p wizard.FinalPatch
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := c.EditFinal(p); err != nil {
		writeError(w, "edit final", err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// SaveDraft handles POST /api/wizard/{id}/draft.
func (h *Handler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	res, err := c.SaveDraft(r.Context())
	if err != nil {
		writeError(w, "save draft", err)
		return
	}
	writeJSON(w, http.StatusOK, PersistResponse{Article: res, Session: c.View()})
}

// Publish handles POST /api/wizard/{id}/publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	res, err := c.Publish(r.Context())
	if err != nil {
		writeError(w, "publish", err)
		return
	}
	writeJSON(w, http.StatusOK, PersistResponse{Article: res, Session: c.View()})
}

// GoBack handles POST /api/wizard/{id}/back.
func (h *Handler) GoBack(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	if err := c.GoBack(); err != nil {
		writeError(w, "go back", err)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

// Cancel handles POST /api/wizard/{id}/cancel. Canceling an idle session is
// not an error.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	canceled := c.Cancel()
	writeJSON(w, http.StatusOK, map[string]any{
		"canceled": canceled,
		"session":  c.View(),
	})
}

// Preview handles GET /api/wizard/{id}/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	c := h.session(w, r)
	if c == nil {
		return
	}
	final := c.View().Final
	html, err := markdown.RenderHTML(final.Content)
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Title: final.Title, HTML: html})
}
