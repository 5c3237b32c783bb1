package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{NewBadRequestError("BAD", "bad input"), http.StatusBadRequest},
		{NewUnauthorizedError("NO_AUTH", "no auth"), http.StatusUnauthorized},
		{NewForbiddenError("DENIED", "denied"), http.StatusForbidden},
		{NewNotFoundError("MISSING", "missing"), http.StatusNotFound},
		{NewConflictError("DUP", "duplicate"), http.StatusConflict},
		{NewInternalServerError("BOOM", "boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode)
		assert.NotEmpty(t, tc.err.Stack)
	}
}

func TestErrorString(t *testing.T) {
	err := NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found")
	assert.Equal(t, "[CONVERSATION_NOT_FOUND] Conversation not found", err.Error())
}

func TestFromError(t *testing.T) {
	appErr := NewBadRequestError("BAD", "bad input")
	assert.Same(t, appErr, FromError(appErr))

	wrapped := FromError(errors.New("disk on fire"))
	require.NotNil(t, wrapped)
	assert.Equal(t, http.StatusInternalServerError, wrapped.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", wrapped.Code)

	assert.Nil(t, FromError(nil))
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetStatusCode(NewNotFoundError("X", "x")))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))
}

func TestWithDetails(t *testing.T) {
	err := NewBadRequestError("BAD", "bad input").WithDetails(map[string]string{"field": "chat_name"})
	assert.Equal(t, map[string]string{"field": "chat_name"}, err.Details)
}
