package service

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newReauthStoreForTest(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisReauthStore) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return m, NewRedisReauthStore(client, ttl, time.Second)
}

func TestReauthMarkerIsSingleUse(t *testing.T) {
	_, store := newReauthStoreForTest(t, 5*time.Minute)
	ctx := context.Background()

	if err := store.Grant(ctx, "bearer-token"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := store.Consume(ctx, "bearer-token"); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if err := store.Consume(ctx, "bearer-token"); !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("second consume = %v, want ErrReauthRequired", err)
	}
}

func TestReauthMarkerBoundToToken(t *testing.T) {
	_, store := newReauthStoreForTest(t, 5*time.Minute)
	ctx := context.Background()

	if err := store.Grant(ctx, "token-a"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := store.Consume(ctx, "token-b"); !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("consume with other token = %v, want ErrReauthRequired", err)
	}
	if err := store.Consume(ctx, "token-a"); err != nil {
		t.Fatalf("consume with granted token: %v", err)
	}
}

func TestReauthMarkerExpires(t *testing.T) {
	m, store := newReauthStoreForTest(t, time.Minute)
	ctx := context.Background()

	if err := store.Grant(ctx, "short-lived"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	m.FastForward(2 * time.Minute)
	if err := store.Consume(ctx, "short-lived"); !errors.Is(err, ErrReauthRequired) {
		t.Fatalf("consume after expiry = %v, want ErrReauthRequired", err)
	}
}

func TestReauthOutageFailsClosed(t *testing.T) {
	m, store := newReauthStoreForTest(t, time.Minute)
	ctx := context.Background()
	m.Close()

	if err := store.Grant(ctx, "t"); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Grant during outage = %v, want ErrServiceUnavailable", err)
	}
	if err := store.Consume(ctx, "t"); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Consume during outage = %v, want ErrServiceUnavailable", err)
	}
}
