package ratelimit

import (
	"context"
	"fmt"
	"time"

	"oss-callback/internal/common/logging"
)

// distributedLimiter implements Redis-backed rate limiting shared by every replica
type distributedLimiter struct {
	config      Config
	redisClient RedisInterface
	logger      logging.Logger
}

// NewDistributedLimiter creates a new distributed rate limiter
func NewDistributedLimiter(config Config, redisClient RedisInterface, logger logging.Logger) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required for distributed rate limiter")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	return &distributedLimiter{
		config:      config,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// TryAcquireForKey checks the Redis sliding window for key.
// A Redis failure lets the request through; limiting must never block verification.
func (rl *distributedLimiter) TryAcquireForKey(ctx context.Context, key string) bool {
	if !rl.config.Enabled {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	allowed, _, err := rl.redisClient.CheckRateLimit(ctx, rl.config.KeyPrefix+key, rl.config.Limit, rl.config.Window)
	if err != nil {
		rl.logger.WithContext(ctx).Warn("Rate limit check failed, allowing request",
			logging.String("key", key),
			logging.Err(err),
		)
		return true
	}

	return allowed
}

// Stats returns rate limiter statistics
func (rl *distributedLimiter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"type":       string(BackendDistributed),
		"enabled":    rl.config.Enabled,
		"limit":      rl.config.Limit,
		"window":     rl.config.Window.String(),
		"backend":    "redis",
		"key_prefix": rl.config.KeyPrefix,
	}
}

// Health checks if the distributed rate limiter is working
func (rl *distributedLimiter) Health() error {
	return rl.redisClient.Health()
}

var _ Limiter = (*distributedLimiter)(nil)
