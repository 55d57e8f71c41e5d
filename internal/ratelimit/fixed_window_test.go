package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisLimiter(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisLimiter(redis.Addr(), "", "test:ratelimit", 2, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	ctx := context.Background()
	if !limiter.Allow(ctx, "127.0.0.1") {
		t.Fatalf("first request should pass")
	}
	if !limiter.Allow(ctx, "127.0.0.1") {
		t.Fatalf("second request should pass")
	}
	if limiter.Allow(ctx, "127.0.0.1") {
		t.Fatalf("third request should be blocked")
	}
	if !limiter.Allow(ctx, "::1") {
		t.Fatalf("other keys keep their own quota")
	}
}

func TestRedisLimiterFailClosed(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisLimiter(redis.Addr(), "", "test:ratelimit", 1, time.Second)
	if err != nil {
		t.Fatalf("new redis limiter: %v", err)
	}
	defer limiter.Close()
	redis.Close()
	if limiter.Allow(context.Background(), "127.0.0.1") {
		t.Fatalf("limiter should fail closed on redis errors")
	}
}

func TestRedisLimiterRequiresAddr(t *testing.T) {
	if _, err := NewRedisLimiter("", "", "test:ratelimit", 1, time.Second); err == nil {
		t.Fatalf("expected error without redis addr")
	}
}

func TestMemoryLimiterResetsEachWindow(t *testing.T) {
	limiter, err := NewMemoryLimiter(1, time.Minute)
	if err != nil {
		t.Fatalf("new memory limiter: %v", err)
	}
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()
	if !limiter.Allow(ctx, "") || limiter.Allow(ctx, " ") {
		t.Fatalf("blank keys share one quota")
	}
	now = now.Add(time.Minute)
	if !limiter.Allow(ctx, "") {
		t.Fatalf("new window should reset the count")
	}
	if _, err := NewMemoryLimiter(0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
