package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/auth"
	"github.com/starford/articlegen/internal/wizard"
)

const maxJSONBody = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error  string            `json:"error" validate:"required"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decodeJSON reads a size-limited JSON body into v. It writes a 400 and
// returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// writeError maps domain errors to HTTP responses. Unknown errors are logged
// and reported as 500 without detail.
func writeError(w http.ResponseWriter, op string, err error) {
	var (
		aerr *auth.Error
		verr *wizard.ValidationError
		gerr *wizard.GenerationError
		perr *wizard.PublishError
	)
	switch {
	case errors.As(err, &aerr):
		writeJSON(w, aerr.Status(), errResponse{Error: aerr.Message, Code: aerr.Code, Fields: aerr.Fields})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errResponse{Error: verr.Error(), Code: "validation_failed", Fields: verr.Fields})
	case errors.Is(err, wizard.ErrBusy):
		writeJSON(w, http.StatusConflict, errResponse{Error: "a request is already in progress", Code: "busy"})
	case errors.Is(err, wizard.ErrSuperseded):
		writeJSON(w, http.StatusConflict, errResponse{Error: "the request was cancelled", Code: "superseded"})
	case errors.Is(err, wizard.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errResponse{Error: err.Error(), Code: "invalid_transition"})
	case errors.As(err, &gerr):
		writeJSON(w, kindStatus(gerr.Kind), errResponse{Error: "generation failed: " + gerr.Kind.String(), Code: "generation_failed"})
	case errors.As(err, &perr):
		writeJSON(w, kindStatus(perr.Kind), errResponse{Error: "publish failed: " + perr.Kind.String(), Code: "publish_failed"})
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict), errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden"))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func kindStatus(k wizard.ErrorKind) int {
	switch k {
	case wizard.KindTimeout:
		return http.StatusGatewayTimeout
	case wizard.KindCanceled:
		return http.StatusConflict
	case wizard.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}
