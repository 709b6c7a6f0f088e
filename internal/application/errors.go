package application

import (
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrValidation             = errors.New("validation failed")
	ErrDuplicateAccount       = errors.New("account already exists")
	ErrEmailRequiredForSignup = errors.New("provider returned no email; cannot sign up")
	ErrLinkingDisabled        = errors.New("email already registered and account linking is disabled")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrForbidden              = errors.New("forbidden")
	ErrProviderFailure        = errors.New("identity provider handshake failed")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidRole            = errors.New("invalid role")
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		names = append(names, k)
	}
	return ErrValidation.Error() + ": " + strings.Join(names, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// requireFields returns a *ValidationError for every blank value, or nil.
func requireFields(fields map[string]string) error {
	var missing map[string]string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			if missing == nil {
				missing = make(map[string]string)
			}
			missing[name] = "is required"
		}
	}
	if missing == nil {
		return nil
	}
	return &ValidationError{Fields: missing}
}

// normalizeEmail trims and lowercases an email for lookups and storage.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
