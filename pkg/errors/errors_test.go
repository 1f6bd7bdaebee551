package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewNotFoundError_Message(t *testing.T) {
	err := NewNotFoundError("Idea")

	assert.Equal(t, "Idea not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("fetch: %w", err)))
	assert.False(t, IsValidation(err))
}

func TestAsNetwork(t *testing.T) {
	t.Run("wraps plain errors", func(t *testing.T) {
		err := AsNetwork("store get failed", fmt.Errorf("connection reset"))
		assert.True(t, IsNetwork(err))
		assert.Equal(t, "store get failed: connection reset", UserMessage(err))
	})

	t.Run("keeps classified errors", func(t *testing.T) {
		nf := NewNotFoundError("Idea")
		assert.Same(t, nf, AsNetwork("store get failed", nf))
	})

	t.Run("passes cancellation through", func(t *testing.T) {
		assert.ErrorIs(t, AsNetwork("x", context.Canceled), context.Canceled)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, AsNetwork("x", nil))
	})
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantMsg    string
	}{
		{"not found", NewNotFoundError("Idea"), http.StatusNotFound, "NOT_FOUND", "Idea not found"},
		{"validation", NewValidationError("title is required"), http.StatusBadRequest, "VALIDATION", "title is required"},
		{"plain error hidden", fmt.Errorf("boom"), http.StatusInternalServerError, "INTERNAL", "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ideas/1", nil)

			h.Handle(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.wantType, body.Type)
			assert.Equal(t, tt.wantMsg, body.Message)
		})
	}
}

func TestErrorHandler_HandleStatus(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	for status, wantType := range map[int]string{
		http.StatusNotFound:         "NOT_FOUND",
		http.StatusMethodNotAllowed: "METHOD_NOT_ALLOWED",
		http.StatusTeapot:           "INTERNAL",
	} {
		rec := httptest.NewRecorder()
		h.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/x", nil), status, "nope")

		assert.Equal(t, status, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, wantType, body.Type)
		assert.Equal(t, "nope", body.Message)
	}
}
