package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	err := NotFound("product", "prod-42")

	assert.Equal(t, "NOT_FOUND", err.Code)
	assert.Equal(t, http.StatusNotFound, err.Status)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "prod-42")
}

func TestInvalidInput(t *testing.T) {
	err := InvalidInput("product id is required")

	assert.Equal(t, "INVALID_INPUT", err.Code)
	assert.Equal(t, http.StatusBadRequest, err.Status)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUnavailable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := Unavailable("catalog provider", cause)

	assert.Equal(t, "PROVIDER_UNAVAILABLE", err.Code)
	assert.Equal(t, http.StatusServiceUnavailable, err.Status)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
}

func TestUnavailable_DistinctFromNotFound(t *testing.T) {
	down := Unavailable("catalog provider", errors.New("timeout"))
	missing := NotFound("product", "p1")

	assert.False(t, errors.Is(down, ErrNotFound))
	assert.False(t, errors.Is(missing, ErrUnavailable))
	assert.NotEqual(t, HTTPStatus(down), HTTPStatus(missing))
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := Internal(inner)

	assert.ErrorIs(t, err, inner)

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &appErr))
	assert.Equal(t, "INTERNAL_ERROR", appErr.Code)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found sentinel", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{"invalid input sentinel", fmt.Errorf("add: %w", ErrInvalidInput), http.StatusBadRequest},
		{"unavailable sentinel", fmt.Errorf("list: %w", ErrUnavailable), http.StatusServiceUnavailable},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"already exists", ErrAlreadyExists, http.StatusConflict},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
		{"app error wins", NotFound("product", "x"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
