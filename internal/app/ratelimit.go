package app

import (
	"strconv"
	"time"

	"oss-callback/internal/common/logging"
	"oss-callback/internal/common/ratelimit"
)

// initializeRateLimiter builds the per-IP callback limiter.
// It is shared across replicas through Redis when a client is available.
func (app *App) initializeRateLimiter() error {
	config := ratelimit.DefaultConfig()
	config.Enabled = true

	if limit, err := strconv.Atoi(app.Config.RateLimitDefault); err == nil && limit > 0 {
		config.Limit = limit
	}
	if window, err := time.ParseDuration(app.Config.RateLimitWindow); err == nil && window > 0 {
		config.Window = window
	}

	var backend ratelimit.RedisInterface
	if app.RedisClient != nil {
		config.Type = ratelimit.BackendDistributed
		backend = app.RedisClient
	}

	limiter, err := ratelimit.New(config, backend, app.Logger)
	if err != nil {
		return err
	}

	app.RateLimiter = limiter
	app.Logger.Info("Rate Limiting: Enabled",
		logging.String("backend", string(config.Type)),
		logging.Int("limit", config.Limit),
		logging.Duration("window", config.Window),
	)
	return nil
}
