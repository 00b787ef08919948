package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for client operations
var (
	// ErrServerOffline indicates the library service is unreachable
	ErrServerOffline = errors.New("library service is unreachable")

	// ErrUnauthorized indicates the credential was rejected (HTTP 401)
	ErrUnauthorized = errors.New("authentication token is invalid")

	// ErrForbidden indicates the account lacks the role for the request (HTTP 403)
	ErrForbidden = errors.New("insufficient permissions")

	// ErrNotAuthenticated indicates an operation needs a session but none exists
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrStoreClosed indicates the persistence store was used after Close
	ErrStoreClosed = errors.New("store is closed")
)

// APIError is a non-2xx response from the library service.
// Details carries field-level validation messages keyed by field name.
type APIError struct {
	Status  int
	Message string
	Details map[string]string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// Is lets errors.Is match status-based sentinels
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	}
	return false
}

// ValidationError is a client-side validation failure, reported per field
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}
