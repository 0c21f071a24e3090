package app

import (
	"net/http"

	"github.com/gorilla/mux"
	"oss-callback/internal/common/logging"
	"oss-callback/internal/common/ratelimit"
	"oss-callback/internal/handlers"
	"oss-callback/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application.
// GET /health is only routed when health is set; otherwise it falls through to
// the empty 200 like every other non-POST request.
func SetupRoutes(router *mux.Router, callbackPath string, health bool, h *handlers.CallbackHandler, rateLimiter ratelimit.Limiter, logger logging.Logger) {
	router.Use(middleware.LoggingMiddleware(logger))

	var callback http.Handler = http.HandlerFunc(h.HandleCallback)
	if rateLimiter != nil {
		callback = ratelimit.HTTPMiddleware(rateLimiter, ratelimit.IPKey)(callback)
	}
	router.Handle(callbackPath, callback).Methods(http.MethodPost)

	if health {
		router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	}

	// Every other method on any path gets an empty 200.
	router.PathPrefix("/").MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.Method != http.MethodPost
	}).HandlerFunc(h.HandleNonCallback)
}
