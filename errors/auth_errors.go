package errors

import (
	"fmt"
	"net/http"
)

// AuthError is the typed error surfaced to HTTP callers by the reconciler.
// Message is always safe to return; Detail carries the underlying cause and
// is only exposed in development builds.
type AuthError struct {
	Code    string `json:"-"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
	Status  int    `json:"-"`
}

func (e *AuthError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error codes for the reconciler's failure taxonomy.
const (
	AuthenticationRequired = "authentication_required"
	NotFound               = "not_found"
	PersistenceFailure     = "persistence_failure"
)

// NewAuthenticationRequired is returned when the assertion carries no subject
// id. Deliberately generic; it must not reveal what was missing.
func NewAuthenticationRequired() *AuthError {
	return &AuthError{
		Code:    AuthenticationRequired,
		Message: "Authentication required",
		Status:  http.StatusUnauthorized,
	}
}

// NewNotFound is returned by fetch-only profile operations that miss.
func NewNotFound() *AuthError {
	return &AuthError{
		Code:    NotFound,
		Message: "User not found",
		Status:  http.StatusNotFound,
	}
}

// NewPersistenceFailure wraps an account-store error. The wrapped message is
// kept in Detail so the API layer can redact it outside development.
func NewPersistenceFailure(message string, cause error) *AuthError {
	e := &AuthError{
		Code:    PersistenceFailure,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
	if cause != nil {
		e.Detail = cause.Error()
	}
	return e
}
