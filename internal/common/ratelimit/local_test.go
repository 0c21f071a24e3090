package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLocalLimiterKeyBased(t *testing.T) {
	config := Config{
		Enabled: true,
		Limit:   2,
		Window:  time.Minute,
		Type:    BackendLocal,
	}

	limiter, err := NewLocalLimiter(config)
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}

	ctx := context.Background()
	key1 := "10.0.0.1"
	key2 := "10.0.0.2"

	// Each key should have its own limit
	for i := 0; i < config.Limit; i++ {
		if !limiter.TryAcquireForKey(ctx, key1) {
			t.Errorf("Key1 request %d should be allowed", i)
		}
		if !limiter.TryAcquireForKey(ctx, key2) {
			t.Errorf("Key2 request %d should be allowed", i)
		}
	}

	if limiter.TryAcquireForKey(ctx, key1) {
		t.Error("Key1 should be rate limited")
	}
	if limiter.TryAcquireForKey(ctx, key2) {
		t.Error("Key2 should be rate limited")
	}
}

func TestLocalLimiterDisabled(t *testing.T) {
	limiter, err := NewLocalLimiter(Config{Enabled: false})
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}

	for i := 0; i < 100; i++ {
		if !limiter.TryAcquireForKey(context.Background(), "10.0.0.1") {
			t.Errorf("Request %d should be allowed when disabled", i)
		}
	}
}

func TestLocalLimiterStats(t *testing.T) {
	limiter, err := NewLocalLimiter(Config{
		Enabled: true,
		Limit:   600,
		Window:  time.Minute,
	})
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}

	limiter.TryAcquireForKey(context.Background(), "10.0.0.1")

	stats := limiter.Stats()
	if stats["type"] != "local" {
		t.Errorf("Expected type 'local', got %v", stats["type"])
	}
	if stats["limit"] != 600 {
		t.Errorf("Expected limit 600, got %v", stats["limit"])
	}
	if stats["active_keys"] != 1 {
		t.Errorf("Expected 1 active key, got %v", stats["active_keys"])
	}
	if err := limiter.Health(); err != nil {
		t.Errorf("Health() = %v", err)
	}
}

func TestLocalLimiterCleanup(t *testing.T) {
	limiter, err := NewLocalLimiter(Config{
		Enabled:       true,
		Limit:         1,
		Window:        time.Minute,
		MaxKeys:       2,
		CleanupPeriod: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create limiter: %v", err)
	}

	ctx := context.Background()
	limiter.TryAcquireForKey(ctx, "a")
	limiter.TryAcquireForKey(ctx, "b")
	time.Sleep(5 * time.Millisecond)
	limiter.TryAcquireForKey(ctx, "c")

	if got := limiter.Stats()["active_keys"]; got != 1 {
		t.Errorf("Expected stale keys to be dropped, active_keys = %v", got)
	}

	// A dropped key starts over with a full bucket.
	if !limiter.TryAcquireForKey(ctx, "a") {
		t.Error("Expected key 'a' to be allowed after cleanup")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"disabled skips checks", Config{}, false},
		{"local defaults", Config{Enabled: true, Limit: 10, Window: time.Second}, false},
		{"distributed", Config{Enabled: true, Limit: 10, Window: time.Second, Type: BackendDistributed}, false},
		{"zero limit", Config{Enabled: true, Window: time.Second}, true},
		{"zero window", Config{Enabled: true, Limit: 10}, true},
		{"unknown backend", Config{Enabled: true, Limit: 10, Window: time.Second, Type: "memcached"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	config := Config{Enabled: true, Limit: 10, Window: time.Second, Type: BackendDistributed}
	if err := config.Validate(); err != nil {
		t.Fatal(err)
	}
	if config.KeyPrefix != "ratelimit:" {
		t.Errorf("Expected default key prefix, got %q", config.KeyPrefix)
	}
}
