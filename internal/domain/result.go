package domain

import (
	"errors"
	"net/http"
)

// GenericFailureMessage is shown when a call fails without a server-provided message
const GenericFailureMessage = "Unable to reach the library service. Check your connection and try again."

// Envelope is the wire shape of every library service response:
// {success, data, pagination} on success, {success:false, message, error:{details}} otherwise.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Message    string      `json:"message,omitempty"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// ErrorBody is the error payload of a failed envelope
type ErrorBody struct {
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// FailureKind classifies a failure for display policy
type FailureKind string

const (
	// FailureValidation carries field errors and is shown inline
	FailureValidation FailureKind = "validation"
	// FailureRejected is a business-rule rejection (success:false with a message)
	FailureRejected FailureKind = "rejected"
	// FailureConnectivity is a transport or unexpected failure
	FailureConnectivity FailureKind = "connectivity"
	// FailureUnauthorized means the session is no longer valid
	FailureUnauthorized FailureKind = "unauthorized"
	// FailureForbidden means the account lacks permission; the session stays
	FailureForbidden FailureKind = "forbidden"
)

// Failure is the error half of Result
type Failure struct {
	Kind        FailureKind
	Message     string
	FieldErrors map[string]string
}

// Result is the closed outcome of a boundary call: exactly one of ok data or Failure.
type Result[T any] struct {
	Data       T
	Pagination *Pagination
	Failure    *Failure
}

// Ok builds a successful result
func Ok[T any](data T, pagination *Pagination) Result[T] {
	return Result[T]{Data: data, Pagination: pagination}
}

// Err builds a failed result
func Err[T any](f *Failure) Result[T] {
	return Result[T]{Failure: f}
}

// OK returns true if the call succeeded
func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// ErrorMessage returns the failure message or "" on success
func (r Result[T]) ErrorMessage() string {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Message
}

// Normalize converts an envelope/error pair into a Result.
// This is the only place response shapes are interpreted.
func Normalize[T any](env Envelope[T], err error) Result[T] {
	if err != nil {
		return Err[T](FailureFrom(err))
	}
	if env.Success {
		return Ok(env.Data, env.Pagination)
	}

	f := &Failure{Kind: FailureRejected, Message: env.Message}
	if env.Error != nil {
		if f.Message == "" {
			f.Message = env.Error.Message
		}
		if len(env.Error.Details) > 0 {
			f.Kind = FailureValidation
			f.FieldErrors = env.Error.Details
		}
	}
	if f.Message == "" {
		f.Message = "Request was rejected"
	}
	return Err[T](f)
}

// FailureFrom maps an error returned by a collaborator to a Failure.
// Server-embedded messages win over the generic connectivity message.
func FailureFrom(err error) *Failure {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &Failure{Kind: FailureValidation, Message: validationErr.Message, FieldErrors: validationErr.Fields}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		f := &Failure{Kind: FailureRejected, Message: apiErr.Message, FieldErrors: apiErr.Details}
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			f.Kind = FailureUnauthorized
		case apiErr.Status == http.StatusForbidden:
			f.Kind = FailureForbidden
		case len(apiErr.Details) > 0:
			f.Kind = FailureValidation
		case apiErr.Status >= http.StatusInternalServerError && apiErr.Message == "":
			f.Kind = FailureConnectivity
		}
		if f.Message == "" {
			f.Message = GenericFailureMessage
		}
		return f
	}

	return &Failure{Kind: FailureConnectivity, Message: GenericFailureMessage}
}
