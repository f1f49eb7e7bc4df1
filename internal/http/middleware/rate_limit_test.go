package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRateLimiterForTest(t *testing.T) (*miniredis.Miniredis, *RedisFixedWindowLimiter) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, NewRedisFixedWindowLimiter(client, "rl_test")
}

func TestRedisFixedWindowLimiterAllowAndDeny(t *testing.T) {
	_, limiter := newRateLimiterForTest(t)
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, "ip1", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("first request: allowed=%v err=%v", allowed, err)
	}
	allowed, _, err = limiter.Allow(ctx, "ip1", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("second request: allowed=%v err=%v", allowed, err)
	}
	allowed, retryAfter, err := limiter.Allow(ctx, "ip1", 2, time.Minute)
	if err != nil {
		t.Fatalf("third request: %v", err)
	}
	if allowed {
		t.Fatal("expected third request denied")
	}
	if retryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", retryAfter)
	}

	// Other keys are unaffected.
	allowed, _, err = limiter.Allow(ctx, "ip2", 2, time.Minute)
	if err != nil || !allowed {
		t.Fatalf("other key: allowed=%v err=%v", allowed, err)
	}
}

func TestRedisFixedWindowLimiterWindowReset(t *testing.T) {
	m, limiter := newRateLimiterForTest(t)
	ctx := context.Background()

	if allowed, _, _ := limiter.Allow(ctx, "k", 1, time.Minute); !allowed {
		t.Fatal("first request should pass")
	}
	if allowed, _, _ := limiter.Allow(ctx, "k", 1, time.Minute); allowed {
		t.Fatal("second request should be denied")
	}
	m.FastForward(2 * time.Minute)
	if allowed, _, _ := limiter.Allow(ctx, "k", 1, time.Minute); !allowed {
		t.Fatal("request after window reset should pass")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	m, limiter := newRateLimiterForTest(t)
	handler := RateLimit(limiter, "auth", 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.0.2.1:4000"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header on denial")
	}

	// Backend outage denies rather than letting traffic through.
	m.Close()
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("outage status = %d, want 503", rec.Code)
	}
}
