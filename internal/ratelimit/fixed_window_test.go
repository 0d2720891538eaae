package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestFixedWindowLimiterAllowsWithinQuota(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", 3, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}

	for i := 0; i < 3; i++ {
		if !limiter.Allow("session-1") {
			t.Fatalf("call %d should be within quota", i+1)
		}
	}
	if limiter.Allow("session-1") {
		t.Fatalf("fourth call should exceed quota")
	}
	// A different session has its own window.
	if !limiter.Allow("session-2") {
		t.Fatalf("other session should not share the quota")
	}
}

func TestFixedWindowLimiterFailsClosedWithoutRedis(t *testing.T) {
	redis := miniredis.RunT(t)
	limiter, err := NewRedisFixedWindowLimiter(redis.Addr(), "", 3, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	redis.Close()
	if limiter.Allow("session-1") {
		t.Fatalf("limiter should fail closed when redis is down")
	}
}

func TestNewRedisFixedWindowLimiterValidation(t *testing.T) {
	if _, err := NewRedisFixedWindowLimiter("", "", 3, time.Minute); err == nil {
		t.Fatalf("expected error for missing addr")
	}
	if _, err := NewRedisFixedWindowLimiter("localhost:6379", "", 0, time.Minute); err == nil {
		t.Fatalf("expected error for zero limit")
	}
}
