package app

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"oss-callback/internal/circuitbreaker"
	"oss-callback/internal/common/errors"
	commonhttp "oss-callback/internal/common/http"
	"oss-callback/internal/common/logging"
	"oss-callback/internal/common/ratelimit"
	"oss-callback/internal/config"
	"oss-callback/internal/handlers"
	"oss-callback/internal/redis"
	"oss-callback/internal/signature"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	RedisClient *redis.Client
	RateLimiter ratelimit.Limiter
	KeyBreaker  *circuitbreaker.GoBreakerAdapter
	Resolver    *signature.Resolver
	Callbacks   *handlers.CallbackHandler
	Logger      logging.Logger
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	if cfg.RateLimitEnabled {
		if err := app.initializeRedis(); err != nil {
			// Redis is optional, the limiter falls back to memory
			app.Logger.Warn("Redis initialization failed, continuing without Redis",
				logging.Err(err))
		}
		if err := app.initializeRateLimiter(); err != nil {
			app.Cleanup()
			return nil, err
		}
	}

	if err := app.initializeVerifier(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

// initializeVerifier builds the key fetch client, the resolver and the callback handler
func (app *App) initializeVerifier() error {
	allow, err := signature.ParseOrigins(app.Config.KeyURLOrigins)
	if err != nil {
		return err
	}

	opts := []commonhttp.ClientOption{
		commonhttp.WithTimeout(app.Config.KeyFetchTimeoutDuration()),
		commonhttp.WithMaxResponseBytes(app.Config.MaxKeyBytesValue()),
	}

	if app.Config.KeyFetchBreakerEnabled {
		breakerConfig := circuitbreaker.DefaultConfig()
		breakerConfig.MaxFailures = app.Config.KeyFetchBreakerMaxFailuresValue()
		breakerConfig.Timeout = app.Config.KeyFetchBreakerTimeoutDuration()
		if err := breakerConfig.Validate(); err != nil {
			return errors.ConfigError(fmt.Sprintf("invalid key fetch breaker: %v", err))
		}
		app.KeyBreaker = circuitbreaker.NewGoBreaker("key-fetch", breakerConfig, app.Logger)
		opts = append(opts, commonhttp.WithCircuitBreaker(app.KeyBreaker))
	}

	app.Resolver = signature.NewResolver(allow, commonhttp.NewClient(opts...), app.Logger)
	app.Callbacks = handlers.NewCallbackHandler(app.Resolver, handlers.CallbackConfig{
		MaxBodyBytes:    app.Config.MaxBodyBytesValue(),
		BodyReadTimeout: app.Config.BodyReadTimeoutDuration(),
	}, app.Logger)
	if app.KeyBreaker != nil {
		app.Callbacks.ReportBreaker(app.KeyBreaker)
	}

	origins := make([]string, 0, len(allow))
	for _, origin := range allow {
		origins = append(origins, origin.String())
	}
	app.Logger.Info("Callback verifier ready",
		logging.String("path", app.Config.CallbackPath),
		logging.String("key_origins", fmt.Sprint(origins)),
		logging.Bool("breaker", app.KeyBreaker != nil),
	)
	return nil
}

// Handler returns the fully routed HTTP handler
func (app *App) Handler() http.Handler {
	router := mux.NewRouter()
	SetupRoutes(router, app.Config.CallbackPath, app.Config.HealthCheckEnabled, app.Callbacks, app.RateLimiter, app.Logger)
	return router
}

// Cleanup releases external connections
func (app *App) Cleanup() {
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis client", logging.Err(err))
		}
		app.RedisClient = nil
	}
}
