package cache

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/edupulse/engage/internal/config"
	"github.com/edupulse/engage/pkg/logger"
)

// setupCache starts a miniredis server and connects a RedisCache to it.
func setupCache(t *testing.T) *RedisCache {
	t.Helper()

	mr := miniredis.RunT(t)

	parts := strings.Split(mr.Addr(), ":")
	port, err := strconv.Atoi(parts[1])
	if err != nil {
		t.Fatalf("Failed to parse miniredis port: %v", err)
	}

	cfg := &config.RedisConfig{Host: parts[0], Port: port}
	c, err := NewRedisCache(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewRedisCache() failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return c
}

func TestRedisCache_SetGet(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	err := c.Set(ctx, "leaderboard:10", `[{"user_id":1}]`, time.Minute)
	if err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	val, err := c.Get(ctx, "leaderboard:10")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}

	if val != `[{"user_id":1}]` {
		t.Errorf("Expected stored value, got %q", val)
	}
}

func TestRedisCache_GetMissingKey(t *testing.T) {
	c := setupCache(t)

	val, err := c.Get(context.Background(), "no-such-key")
	if err != nil {
		t.Fatalf("Get() on missing key failed: %v", err)
	}

	if val != "" {
		t.Errorf("Expected empty string for missing key, got %q", val)
	}
}

func TestRedisCache_Del(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "a", "1", time.Minute)
	_ = c.Set(ctx, "b", "2", time.Minute)

	if err := c.Del(ctx, "a", "b"); err != nil {
		t.Fatalf("Del() failed: %v", err)
	}

	val, _ := c.Get(ctx, "a")
	if val != "" {
		t.Errorf("Expected key 'a' deleted, got %q", val)
	}
}

func TestRedisCache_Health(t *testing.T) {
	c := setupCache(t)

	if err := c.Health(context.Background()); err != nil {
		t.Errorf("Health() failed: %v", err)
	}
}
