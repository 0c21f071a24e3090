// Package config provides configuration management for the OSS callback verifier.
// It loads configuration from environment variables with sensible defaults and
// validates it so the service refuses to start with an unsafe setup.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8002)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Optional log file, stdout when empty
//   - TLS_CERT_FILE / TLS_KEY_FILE: Serve HTTPS when both are set
//   - HEALTH_CHECK_ENABLED: Serve GET /health instead of the empty 200 (default: false)
//
// Callback Verification:
//   - CALLBACK_PATH: Route the provider posts to (default: /oss/post)
//   - OSS_KEY_URL_ORIGINS: Comma separated origins a public key URL may point at
//     (default: http://gosspublic.alicdn.com,https://gosspublic.alicdn.com)
//   - KEY_FETCH_TIMEOUT: Upper bound for downloading the public key (default: 10s)
//   - BODY_READ_TIMEOUT: Upper bound for reading the callback body (default: 10s)
//   - MAX_BODY_BYTES: Largest accepted callback body (default: 1048576)
//   - MAX_KEY_BYTES: Largest accepted public key response (default: 16384)
//
// Key Fetch Circuit Breaker:
//   - KEY_FETCH_BREAKER_ENABLED: Guard key downloads with a circuit breaker (default: false)
//   - KEY_FETCH_BREAKER_MAX_FAILURES: Consecutive failures before opening (default: 5)
//   - KEY_FETCH_BREAKER_TIMEOUT: How long the breaker stays open (default: 30s)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Per-IP limiting of the callback route (default: false)
//   - RATE_LIMIT_DEFAULT: Requests allowed per window (default: 600)
//   - RATE_LIMIT_WINDOW: Rate limit time window (default: 60s)
//
// Redis Configuration (distributed rate limiting, optional):
//   - REDIS_ADDRESS: Redis server address, empty keeps limiting in-process
//   - REDIS_PASSWORD: Redis password
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//
// Example usage:
//
//	cfg := config.Load()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid configuration: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"oss-callback/internal/common/validation"
)

// DefaultKeyURLOrigins are the provider-owned origins that serve callback public keys.
var DefaultKeyURLOrigins = []string{
	"http://gosspublic.alicdn.com",
	"https://gosspublic.alicdn.com",
}

// Config holds all configuration values for the callback verifier.
// String fields mirror their environment variables and are parsed by the
// typed accessors after Validate has accepted them.
type Config struct {
	// Application settings
	Port        string // Server port number
	LogLevel    string // Logging level (debug, info, warn, error)
	LogFile     string // Optional log file path
	TLSCertFile string // PEM certificate for HTTPS
	TLSKeyFile  string // PEM private key for HTTPS

	HealthCheckEnabled bool // Answer GET /health with a JSON report

	// Callback verification
	CallbackPath    string   // Route the provider posts callbacks to
	KeyURLOrigins   []string // Allow-listed public key origins (scheme://host[:port])
	KeyFetchTimeout string   // Public key download timeout
	BodyReadTimeout string   // Callback body read deadline
	MaxBodyBytes    string   // Callback body size bound
	MaxKeyBytes     string   // Public key response size bound

	// Key fetch circuit breaker
	KeyFetchBreakerEnabled     bool
	KeyFetchBreakerMaxFailures string
	KeyFetchBreakerTimeout     string

	// Rate limiting configuration
	RateLimitEnabled bool   // Whether rate limiting is enabled
	RateLimitDefault string // Requests per window
	RateLimitWindow  string // Rate limiting time window (e.g., "60s", "1m")

	// Redis configuration for distributed rate limiting
	RedisAddress  string // Redis server address (host:port)
	RedisPassword string // Redis authentication password
	RedisDB       string // Redis database number (0-15)
	RedisPoolSize string // Redis connection pool size
}

// Load creates a new Config instance with values loaded from environment variables.
// If an environment variable is not set, the corresponding default value is used.
//
// This function does not validate the configuration; call Validate() on the
// returned Config before use.
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8002"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		HealthCheckEnabled: getBoolEnv("HEALTH_CHECK_ENABLED", false),

		CallbackPath:    getEnv("CALLBACK_PATH", "/oss/post"),
		KeyURLOrigins:   getListEnv("OSS_KEY_URL_ORIGINS", DefaultKeyURLOrigins),
		KeyFetchTimeout: getEnv("KEY_FETCH_TIMEOUT", "10s"),
		BodyReadTimeout: getEnv("BODY_READ_TIMEOUT", "10s"),
		MaxBodyBytes:    getEnv("MAX_BODY_BYTES", "1048576"),
		MaxKeyBytes:     getEnv("MAX_KEY_BYTES", "16384"),

		KeyFetchBreakerEnabled:     getBoolEnv("KEY_FETCH_BREAKER_ENABLED", false),
		KeyFetchBreakerMaxFailures: getEnv("KEY_FETCH_BREAKER_MAX_FAILURES", "5"),
		KeyFetchBreakerTimeout:     getEnv("KEY_FETCH_BREAKER_TIMEOUT", "30s"),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", false),
		RateLimitDefault: getEnv("RATE_LIMIT_DEFAULT", "600"),
		RateLimitWindow:  getEnv("RATE_LIMIT_WINDOW", "60s"),

		RedisAddress:  getEnv("REDIS_ADDRESS", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),
		RedisPoolSize: getEnv("REDIS_POOL_SIZE", "10"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv accepts anything strconv.ParseBool does; other values fall back to defaultValue.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate performs validation on the configuration to ensure all required
// fields are present and all values parse.
func (c *Config) Validate() error {
	v := validation.NewValidatorWithPrefix("config")

	port, err := strconv.Atoi(c.Port)
	if err != nil {
		port = 0
	}
	v.RequireRange(port, 1, 65535, "PORT")

	v.RequireString(c.CallbackPath, "CALLBACK_PATH")
	v.ValidateIf(c.CallbackPath != "" && !strings.HasPrefix(c.CallbackPath, "/"), func() error {
		return fmt.Errorf("CALLBACK_PATH must start with '/'")
	})

	v.ValidateIf(len(c.KeyURLOrigins) == 0, func() error {
		return fmt.Errorf("OSS_KEY_URL_ORIGINS must list at least one origin")
	})
	for _, origin := range c.KeyURLOrigins {
		v.RequireOrigin(origin, "OSS_KEY_URL_ORIGINS entry")
	}

	v.RequireDuration(c.KeyFetchTimeout, "KEY_FETCH_TIMEOUT")
	v.RequireDuration(c.BodyReadTimeout, "BODY_READ_TIMEOUT")
	v.RequirePositive(parseInt64(c.MaxBodyBytes), "MAX_BODY_BYTES")
	v.RequirePositive(parseInt64(c.MaxKeyBytes), "MAX_KEY_BYTES")

	v.ValidateIf((c.TLSCertFile == "") != (c.TLSKeyFile == ""), func() error {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	})

	if c.KeyFetchBreakerEnabled {
		v.RequirePositive(parseInt64(c.KeyFetchBreakerMaxFailures), "KEY_FETCH_BREAKER_MAX_FAILURES")
		v.RequireDuration(c.KeyFetchBreakerTimeout, "KEY_FETCH_BREAKER_TIMEOUT")
	}

	if c.RateLimitEnabled {
		v.RequirePositive(parseInt64(c.RateLimitDefault), "RATE_LIMIT_DEFAULT")
		v.RequireDuration(c.RateLimitWindow, "RATE_LIMIT_WINDOW")
	}

	if c.RedisAddress != "" {
		db, err := strconv.Atoi(c.RedisDB)
		if err != nil {
			db = -1
		}
		v.RequireRange(db, 0, 15, "REDIS_DB")
		v.RequirePositive(parseInt64(c.RedisPoolSize), "REDIS_POOL_SIZE")
	}

	return v.Error()
}

// KeyFetchTimeoutDuration returns the parsed KEY_FETCH_TIMEOUT.
func (c *Config) KeyFetchTimeoutDuration() time.Duration {
	return parseDuration(c.KeyFetchTimeout, 10*time.Second)
}

// BodyReadTimeoutDuration returns the parsed BODY_READ_TIMEOUT.
func (c *Config) BodyReadTimeoutDuration() time.Duration {
	return parseDuration(c.BodyReadTimeout, 10*time.Second)
}

// MaxBodyBytesValue returns the parsed MAX_BODY_BYTES.
func (c *Config) MaxBodyBytesValue() int64 {
	return parsePositive(c.MaxBodyBytes, 1<<20)
}

// MaxKeyBytesValue returns the parsed MAX_KEY_BYTES.
func (c *Config) MaxKeyBytesValue() int64 {
	return parsePositive(c.MaxKeyBytes, 16<<10)
}

// KeyFetchBreakerTimeoutDuration returns the parsed KEY_FETCH_BREAKER_TIMEOUT.
func (c *Config) KeyFetchBreakerTimeoutDuration() time.Duration {
	return parseDuration(c.KeyFetchBreakerTimeout, 30*time.Second)
}

// KeyFetchBreakerMaxFailuresValue returns the parsed KEY_FETCH_BREAKER_MAX_FAILURES.
func (c *Config) KeyFetchBreakerMaxFailuresValue() int {
	return int(parsePositive(c.KeyFetchBreakerMaxFailures, 5))
}

func parseInt64(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func parsePositive(s string, fallback int64) int64 {
	if n := parseInt64(s); n > 0 {
		return n
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
