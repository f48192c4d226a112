package auth

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/starford/articlegen/internal/validation"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SignupForm is the signup request body.
type SignupForm struct {
	FullName        string `json:"full_name" validate:"required,max=120"`
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	AgreeToTerms    bool   `json:"agree_to_terms"`
}

// LoginForm is the login request body.
type LoginForm struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

var fieldMessages = map[string]string{
	"FullName":        "Full name is required.",
	"Email":           "Enter a valid email address.",
	"Password":        "Password is required.",
	"ConfirmPassword": "Please confirm your password.",
}

// Validate checks the form in the order the signup screen reports problems:
// terms, password match, then field rules and password strength.
func (f *SignupForm) Validate() error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = normalizeEmail(f.Email)

	if !f.AgreeToTerms {
		return &Error{Code: CodeInvalidInput, Message: "Please agree to the Terms of Service and Privacy Policy.",
			Fields: map[string]string{"agree_to_terms": "required"}}
	}
	if !validation.PasswordsMatch(f.Password, f.ConfirmPassword) {
		return &Error{Code: CodeInvalidInput, Message: "Passwords do not match. Please try again.",
			Fields: map[string]string{"confirm_password": "does not match"}}
	}
	if err := structError(validate.Struct(f)); err != nil {
		return err
	}
	if s := validation.IsPasswordStrong(f.Password); !s.Acceptable() {
		return &Error{Code: CodeInvalidInput, Message: "Password must meet all requirements.",
			Fields: map[string]string{"password": strings.Join(s.Unmet(), ", ")}}
	}
	if len(f.Password) > MaxPasswordBytes {
		return errPasswordTooLong
	}
	return nil
}

// Validate checks the login form.
func (f *LoginForm) Validate() error {
	f.Email = normalizeEmail(f.Email)
	return structError(validate.Struct(f))
}

// structError turns validator errors into an *Error.
func structError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Code: CodeInvalidInput, Message: err.Error()}
	}
	out := &Error{Code: CodeInvalidInput, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is invalid."
		}
		out.Fields[jsonName(fe.Field())] = msg
		if out.Message == "" {
			out.Message = msg
		}
	}
	return out
}

func jsonName(field string) string {
	switch field {
	case "FullName":
		return "full_name"
	case "ConfirmPassword":
		return "confirm_password"
	default:
		return strings.ToLower(field)
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
