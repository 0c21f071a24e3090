package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware(t *testing.T) {
	limiter, err := NewLocalLimiter(Config{Enabled: true, Limit: 1, Window: time.Hour})
	require.NoError(t, err)

	handler := HTTPMiddleware(limiter, IPKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/oss/post", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234").Code)

	limited := send("10.0.0.1:5678")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, "rate limit exceeded for callback\n", limited.Body.String())

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234").Code)
}

func TestIPKey(t *testing.T) {
	tests := []struct {
		remote string
		header string
		want   string
	}{
		{"10.0.0.1:1234", "", "10.0.0.1"},
		{"[2001:db8::1]:443", "", "2001:db8::1"},
		{"10.0.0.1:1234", "203.0.113.9", "10.0.0.1"},
		{"no-port", "", "no-port"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.header != "" {
			req.Header.Set("X-Forwarded-For", tt.header)
		}
		assert.Equal(t, tt.want, IPKey(req))
	}
}
