package api

import (
	"errors"
	"io"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/starford/articlegen/internal/images"
)

// ImageHandler serves and accepts featured images.
type ImageHandler struct {
	store *images.Store
}

// NewImageHandler creates a handler backed by store.
func NewImageHandler(store *images.Store) *ImageHandler {
	return &ImageHandler{store: store}
}

// ServeFile handles GET /api/images/{filename}.
func (h *ImageHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.store.Path(chi.URLParam(r, "filename"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/images (multipart/form-data, field "file"). The
// stored name is generated; the client uses the returned URL as the
// article's featured image.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, images.MaxBytes+1<<20)

	if err := r.ParseMultipartForm(images.MaxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, images.MaxBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	name, err := h.store.Save(data)
	switch {
	case errors.Is(err, images.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(err.Error()))
		return
	case errors.Is(err, images.ErrUnsupported):
		writeJSON(w, http.StatusUnsupportedMediaType, errorBody(err.Error()))
		return
	case err != nil:
		writeError(w, "save image", err)
		return
	}

	writeJSON(w, http.StatusCreated, ImageUploadResponse{
		Filename: name,
		Size:     int64(len(data)),
		URL:      images.URL(name),
	})
}
