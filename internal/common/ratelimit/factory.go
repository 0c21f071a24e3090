// Package ratelimit limits how often a single client may hit the callback route.
//
// Two backends share the Limiter interface: an in-memory one built on
// golang.org/x/time/rate and a Redis sliding window for multi-replica deployments.
//
//	limiter, err := ratelimit.New(cfg, redisClient, logger)
//	router.Handle("/oss/post", ratelimit.HTTPMiddleware(limiter, ratelimit.IPKey)(handler))
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strconv"

	"oss-callback/internal/common/errors"
	"oss-callback/internal/common/logging"
)

// New creates a rate limiter for the configured backend.
// redisClient is only consulted for the distributed backend.
func New(config Config, redisClient RedisInterface, logger logging.Logger) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case BackendLocal:
		return NewLocalLimiter(config)
	case BackendDistributed:
		if redisClient == nil {
			return nil, fmt.Errorf("redis client is required for distributed rate limiter")
		}
		return NewDistributedLimiter(config, redisClient, logger)
	default:
		return nil, fmt.Errorf("unsupported rate limiter backend type: %s", config.Type)
	}
}

// HTTPMiddleware rejects requests over the limit with 429
func HTTPMiddleware(limiter Limiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.TryAcquireForKey(r.Context(), keyFunc(r)) {
				if limit, ok := limiter.Stats()["limit"].(int); ok {
					w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
					w.Header().Set("X-RateLimit-Remaining", "0")
				}
				w.Header().Set("Retry-After", "1")

				http.Error(w, errors.RateLimitError("callback").Message, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKey keys requests by the peer address without its port.
// Forwarding headers are ignored since any client can set them.
func IPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
