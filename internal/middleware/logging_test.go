package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oss-callback/internal/common/logging"
)

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Failed: verify"))
	})

	rec := httptest.NewRecorder()
	LoggingMiddleware(logging.NewNopLogger())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/oss/post", nil))

	require.NotEmpty(t, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Failed: verify", rec.Body.String())
}

func TestLoggingMiddleware_UniqueIDs(t *testing.T) {
	handler := LoggingMiddleware(logging.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	first := httptest.NewRecorder()
	second := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEqual(t, first.Header().Get(RequestIDHeader), second.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	assert.Equal(t, http.ResponseWriter(rec), rw.Unwrap())
}
