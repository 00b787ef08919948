package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Success(t *testing.T) {
	pag := &Pagination{Page: 2, Limit: 10, Total: 30, PageCount: 3}
	res := Normalize(Envelope[[]string]{Success: true, Data: []string{"a"}, Pagination: pag}, nil)

	require.True(t, res.OK())
	assert.Equal(t, []string{"a"}, res.Data)
	assert.Same(t, pag, res.Pagination)
	assert.Empty(t, res.ErrorMessage())
}

func TestNormalize_Rejected(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope[int]
		kind FailureKind
		msg  string
	}{
		{
			name: "top-level message",
			env:  Envelope[int]{Message: "Invalid credentials"},
			kind: FailureRejected,
			msg:  "Invalid credentials",
		},
		{
			name: "nested message",
			env:  Envelope[int]{Error: &ErrorBody{Message: "Book unavailable"}},
			kind: FailureRejected,
			msg:  "Book unavailable",
		},
		{
			name: "field details",
			env: Envelope[int]{Error: &ErrorBody{
				Message: "Validation failed",
				Details: map[string]string{"email": "taken"},
			}},
			kind: FailureValidation,
			msg:  "Validation failed",
		},
		{
			name: "nothing at all",
			env:  Envelope[int]{},
			kind: FailureRejected,
			msg:  "Request was rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Normalize(tt.env, nil)
			require.False(t, res.OK())
			assert.Equal(t, tt.kind, res.Failure.Kind)
			assert.Equal(t, tt.msg, res.ErrorMessage())
		})
	}
}

func TestFailureFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind FailureKind
		msg  string
	}{
		{"401", &APIError{Status: http.StatusUnauthorized, Message: "Token expired"}, FailureUnauthorized, "Token expired"},
		{"403", &APIError{Status: http.StatusForbidden}, FailureForbidden, GenericFailureMessage},
		{"400 with details", &APIError{Status: 400, Message: "bad", Details: map[string]string{"x": "y"}}, FailureValidation, "bad"},
		{"409", &APIError{Status: http.StatusConflict, Message: "Already returned"}, FailureRejected, "Already returned"},
		{"502 silent", &APIError{Status: http.StatusBadGateway}, FailureConnectivity, GenericFailureMessage},
		{"wrapped", fmt.Errorf("list: %w", &APIError{Status: 404, Message: "Not found"}), FailureRejected, "Not found"},
		{"transport", fmt.Errorf("%w: dial tcp", ErrServerOffline), FailureConnectivity, GenericFailureMessage},
		{"validation", &ValidationError{Message: "fix it", Fields: map[string]string{"email": "is required"}}, FailureValidation, "fix it"},
		{"anything else", errors.New("boom"), FailureConnectivity, GenericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FailureFrom(tt.err)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Equal(t, tt.msg, f.Message)
		})
	}
}

func TestAPIError_Is(t *testing.T) {
	assert.ErrorIs(t, &APIError{Status: 401}, ErrUnauthorized)
	assert.ErrorIs(t, &APIError{Status: 403}, ErrForbidden)
	assert.NotErrorIs(t, &APIError{Status: 403}, ErrUnauthorized)
}
