package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConstructors(t *testing.T) {
	cause := stderrors.New("boom")

	tests := []struct {
		name   string
		err    *AppError
		typ    ErrorType
		status int
	}{
		{"validation", NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{"not found", NewNotFoundError("goal"), ErrorTypeNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("dup"), ErrorTypeConflict, http.StatusConflict},
		{"unauthorized", NewUnauthorizedError(""), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbiddenError(""), ErrorTypeForbidden, http.StatusForbidden},
		{"internal", NewInternalError("oops"), ErrorTypeInternal, http.StatusInternalServerError},
		{"rate limit", NewRateLimitError("slow down"), ErrorTypeRateLimit, http.StatusTooManyRequests},
		{"unavailable", NewUnavailableError("dynamodb"), ErrorTypeUnavailable, http.StatusServiceUnavailable},
		{"database", NewDatabaseError("put", cause), ErrorTypeDatabase, http.StatusInternalServerError},
		{"external", NewExternalError("eventbridge", cause), ErrorTypeExternal, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.NotEmpty(t, tt.err.Message)
			assert.NotEmpty(t, tt.err.StackTrace)
		})
	}

	assert.Equal(t, "goal not found", NewNotFoundError("goal").Message)
	assert.ErrorIs(t, NewDatabaseError("put", cause), cause)
}

func TestHelpers_SeeThroughWrapping(t *testing.T) {
	base := NewNotFoundError("profile").WithCode("PROFILE_MISSING")
	wrapped := fmt.Errorf("loading: %w", base)

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsValidation(wrapped))
	assert.Same(t, base, GetAppError(wrapped))
	assert.Nil(t, GetAppError(stderrors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "ctx"))

	kept := Wrap(NewConflictError("already connected"), "request")
	assert.True(t, IsConflict(kept))
	assert.Equal(t, "request: already connected", GetAppError(kept).Message)

	plain := Wrap(stderrors.New("disk"), "save")
	assert.True(t, IsType(plain, ErrorTypeInternal))
	assert.Contains(t, plain.Error(), "disk")
}

func TestErrorHandler_AppError(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/connections", nil)

	h.Handle(rec, req, NewConflictError("connection already exists").WithCode(CodeAlreadyConnected))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Error)
	assert.Equal(t, "CONFLICT", body.Type)
	assert.Equal(t, CodeAlreadyConnected, body.Code)
	assert.Nil(t, body.Details)
}

func TestErrorHandler_PlainErrorHidesMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	NewErrorHandler(nil, false).Handle(rec, req, stderrors.New("secret connection string"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestErrorHandler_DebugAddsStackTrace(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	NewErrorHandler(zap.NewNop(), true).Handle(rec, req, NewInternalError("bad"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Details, "stack_trace")
}

func TestStatusToErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeNotFound, StatusToErrorType(http.StatusNotFound))
	assert.Equal(t, ErrorTypeInternal, StatusToErrorType(http.StatusTeapot))
}
