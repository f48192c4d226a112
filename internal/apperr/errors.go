// Package apperr holds sentinel errors shared across packages and matched with errors.Is.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
	ErrForbidden     = errors.New("forbidden")
	// ErrUnavailable marks a collaborator that could not be reached or refused
	// the request for capacity reasons (rate limit, 5xx).
	ErrUnavailable = errors.New("service unavailable")
)
