package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter increment, expiry refresh, and lock-marker set happen in one script
// so two concurrent failures for the same email cannot race past the
// threshold or lose an update.
var lockoutRecordScript = redis.NewScript(`
local attempts = redis.call("INCR", KEYS[1])
redis.call("PEXPIRE", KEYS[1], ARGV[1])
if attempts >= tonumber(ARGV[2]) then
  redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[1])
end
return attempts
`)

// RedisLockoutCounter tracks failed-login state in Redis so lockout decisions
// hold across independently deployed service instances. The lock marker value
// is the RFC3339 lock time, letting IsLocked detect stale markers on caches
// that do not evict promptly.
type RedisLockoutCounter struct {
	client  redis.UniversalClient
	logger  *slog.Logger
	policy  LockoutPolicy
	timeout time.Duration
	now     func() time.Time
}

func NewRedisLockoutCounter(client redis.UniversalClient, logger *slog.Logger, policy LockoutPolicy, timeout time.Duration) *RedisLockoutCounter {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RedisLockoutCounter{
		client:  client,
		logger:  logger,
		policy:  normalizeLockoutPolicy(policy),
		timeout: timeout,
		now:     time.Now,
	}
}

func (c *RedisLockoutCounter) RecordFailedAttempt(ctx context.Context, email string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := lockoutRecordScript.Run(ctx, c.client,
		[]string{attemptKey(email), lockKey(email)},
		c.policy.Window.Milliseconds(),
		c.policy.MaxAttempts,
		c.now().UTC().Format(time.RFC3339Nano),
	).Result()
	if err != nil {
		return fmt.Errorf("%w: record failed attempt: %v", ErrServiceUnavailable, err)
	}
	attempts, err := lockoutRedisInt64(result)
	if err != nil {
		return fmt.Errorf("%w: record failed attempt: %v", ErrServiceUnavailable, err)
	}
	c.logger.InfoContext(ctx, "failed login attempt recorded", "email", email, "attempts", attempts)
	if attempts >= int64(c.policy.MaxAttempts) {
		c.logger.WarnContext(ctx, "account locked after repeated failures", "email", email, "attempts", attempts)
	}
	return nil
}

func (c *RedisLockoutCounter) IsLocked(ctx context.Context, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, lockKey(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: lockout check: %v", ErrServiceUnavailable, err)
	}
	lockedAt, parseErr := time.Parse(time.RFC3339Nano, raw)
	if parseErr != nil {
		// Unreadable marker: fail closed until the entry expires.
		c.logger.WarnContext(ctx, "unreadable lock marker treated as locked", "email", email)
		return true, nil
	}
	if c.now().UTC().Sub(lockedAt) >= c.policy.Window {
		// Stale marker the cache did not evict; clean it up.
		if delErr := c.client.Del(ctx, lockKey(email), attemptKey(email)).Err(); delErr != nil {
			c.logger.WarnContext(ctx, "failed to delete stale lock marker", "email", email, "error", delErr)
		}
		return false, nil
	}
	return true, nil
}

func (c *RedisLockoutCounter) ResetFailedAttempts(ctx context.Context, email string) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.client.Del(ctx, attemptKey(email), lockKey(email)).Err(); err != nil {
		// Cleanup must never abort a successful login.
		c.logger.WarnContext(ctx, "failed to reset lockout state", "email", email, "error", err)
		return
	}
	c.logger.InfoContext(ctx, "lockout state reset", "email", email)
}

func (c *RedisLockoutCounter) FailedAttempts(ctx context.Context, email string) int {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.client.Get(ctx, attemptKey(email)).Result()
	if err != nil {
		return 0
	}
	attempts, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return attempts
}

func (c *RedisLockoutCounter) Threshold() int { return c.policy.MaxAttempts }

func attemptKey(email string) string { return "login_attempt:" + email }
func lockKey(email string) string    { return "account_locked:" + email }

func lockoutRedisInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("redis response overflows int64")
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected redis response type %T", v)
	}
}
