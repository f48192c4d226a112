package wizard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/starford/articlegen/internal/apperr"
)

var (
	// ErrBusy rejects a mutating call while a generation or publish call is in flight.
	ErrBusy = errors.New("wizard: a request is already in progress")
	// ErrSuperseded is returned to a caller whose result was discarded because a
	// later call or a cancellation invalidated it.
	ErrSuperseded = errors.New("wizard: result superseded")
)

// ValidationError blocks a submission before any service call. Fields maps a
// form field to its message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "wizard: validation failed: " + strings.Join(parts, "; ")
}

// ErrorKind classifies collaborator failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindServiceUnavailable
	KindCanceled
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// GenerationError wraps a failed GenerationService call.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("wizard: generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PublishError wraps a failed ArticleStore call.
type PublishError struct {
	Kind ErrorKind
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("wizard: publish failed (%s): %v", e.Kind, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// classify maps a collaborator error to a kind.
func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, apperr.ErrUnavailable):
		return KindServiceUnavailable
	default:
		return KindUnknown
	}
}

// userMessage is the notification text for a failure kind.
func userMessage(k ErrorKind, action string) string {
	switch k {
	case KindTimeout:
		return action + " took too long. Please try again."
	case KindServiceUnavailable:
		return "The service is unavailable right now. Please try again later."
	case KindCanceled:
		return action + " was canceled."
	default:
		return action + " failed. Please try again."
	}
}
