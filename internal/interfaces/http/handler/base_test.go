package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockcore/backend/internal/domain/shared"
	"github.com/stockcore/backend/internal/interfaces/http/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestGetRoles(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected []string
	}{
		{"no header", "", nil},
		{"single role", "Stock Manager", []string{"Stock Manager"}},
		{"multiple roles", "Stock Manager,Accounts User", []string{"Stock Manager", "Accounts User"}},
		{"whitespace trimmed", " Stock Manager , Auditor ", []string{"Stock Manager", "Auditor"}},
		{"empty segments dropped", "Stock Manager,,", []string{"Stock Manager"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t)
			if tt.header != "" {
				c.Request.Header.Set(RolesHeader, tt.header)
			}
			assert.Equal(t, tt.expected, getRoles(c))
		})
	}
}

func TestGetRequestID(t *testing.T) {
	t.Run("from context", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Set(RequestIDKey, "ctx-id")
		c.Request.Header.Set("X-Request-ID", "header-id")

		assert.Equal(t, "ctx-id", getRequestID(c))
	})

	t.Run("falls back to header", func(t *testing.T) {
		c, _ := newTestContext(t)
		c.Request.Header.Set("X-Request-ID", "header-id")

		assert.Equal(t, "header-id", getRequestID(c))
	})

	t.Run("empty when absent", func(t *testing.T) {
		c, _ := newTestContext(t)

		assert.Empty(t, getRequestID(c))
	})
}

func TestBaseHandlerResponses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("Success", func(t *testing.T) {
		c, w := newTestContext(t)
		h.Success(c, gin.H{"item": "A"})

		assert.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
	})

	t.Run("Created", func(t *testing.T) {
		c, w := newTestContext(t)
		h.Created(c, gin.H{"item": "A"})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("NoContent", func(t *testing.T) {
		c, w := newTestContext(t)
		h.NoContent(c)
		// gin's engine flushes the deferred status after the handler chain;
		// CreateTestContext has no engine, so flush it here.
		c.Writer.WriteHeaderNow()

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("BadRequest", func(t *testing.T) {
		c, w := newTestContext(t)
		h.BadRequest(c, "bad input")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		assert.Equal(t, "bad input", resp.Error.Message)
	})

	t.Run("NotFound", func(t *testing.T) {
		c, w := newTestContext(t)
		h.NotFound(c, "missing")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Conflict", func(t *testing.T) {
		c, w := newTestContext(t)
		h.Conflict(c, "already there")

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("error carries request ID", func(t *testing.T) {
		c, w := newTestContext(t)
		c.Set(RequestIDKey, "req-123")
		h.BadRequest(c, "bad input")

		resp := decodeResponse(t, w)
		assert.Equal(t, "req-123", resp.Error.RequestID)
	})
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "not found sentinel",
			err:            shared.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrCodeNotFound,
		},
		{
			name:           "insufficient stock",
			err:            shared.ErrInsufficientStock,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeInsufficientStock,
		},
		{
			name:           "concurrency conflict",
			err:            shared.ErrConcurrencyConflict,
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeConcurrencyConflict,
		},
		{
			name:           "frozen period",
			err:            shared.NewDomainError("FROZEN_PERIOD", "Stock transactions are frozen up to 2026-01-31"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   dto.ErrCodeFrozenPeriod,
		},
		{
			name:           "invalid input family",
			err:            shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeInvalidInput,
		},
		{
			name:           "unknown error",
			err:            errors.New("database exploded"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext(t)
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}

	t.Run("nil error writes nothing", func(t *testing.T) {
		c, w := newTestContext(t)
		h.HandleError(c, nil)

		assert.Empty(t, w.Body.String())
	})

	t.Run("unknown error hides internals", func(t *testing.T) {
		c, w := newTestContext(t)
		h.HandleError(c, errors.New("pq: relation does not exist"))

		assert.NotContains(t, w.Body.String(), "pq:")
	})
}

func TestUUIDParam(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid uuid", func(t *testing.T) {
		c, _ := newTestContext(t)
		want := uuid.New()
		c.Params = gin.Params{{Key: "id", Value: want.String()}}

		got, ok := h.uuidParam(c, "id")
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("invalid uuid answers 400", func(t *testing.T) {
		c, w := newTestContext(t)
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		_, ok := h.uuidParam(c, "id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUUIDQuery(t *testing.T) {
	h := &BaseHandler{}

	t.Run("valid uuid", func(t *testing.T) {
		c, _ := newTestContext(t)
		want := uuid.New()
		c.Request = httptest.NewRequest(http.MethodGet, "/?item_id="+want.String(), nil)

		got, ok := h.uuidQuery(c, "item_id")
		assert.True(t, ok)
		assert.Equal(t, want, got)
	})

	t.Run("missing answers 400", func(t *testing.T) {
		c, w := newTestContext(t)

		_, ok := h.uuidQuery(c, "item_id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed answers 400", func(t *testing.T) {
		c, w := newTestContext(t)
		c.Request = httptest.NewRequest(http.MethodGet, "/?item_id=xyz", nil)

		_, ok := h.uuidQuery(c, "item_id")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
