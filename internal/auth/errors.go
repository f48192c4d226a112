package auth

import "net/http"

// Error codes.
const (
	CodeInvalidInput       = "invalid_input"
	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailTaken         = "email_taken"
	CodeUnauthorized       = "unauthorized"
)

// Error is a failure whose Message is safe to show to the user as is.
type Error struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Status maps the code to an HTTP status.
func (e *Error) Status() int {
	switch e.Code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeEmailTaken:
		return http.StatusConflict
	default:
		return http.StatusUnauthorized
	}
}

var (
	errInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Invalid email or password."}
	errUnauthorized       = &Error{Code: CodeUnauthorized, Message: "Your session has expired. Please sign in again."}
	errEmailTaken         = &Error{Code: CodeEmailTaken, Message: "An account with this email already exists."}
)
