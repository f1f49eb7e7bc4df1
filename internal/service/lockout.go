package service

import (
	"context"
	"time"
)

// LockoutPolicy bounds the brute-force window: MaxAttempts consecutive
// failures lock the account for Window; the failure counter itself also
// expires after Window of inactivity.
type LockoutPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

// LockoutCounter is the distributed failed-login state machine shared by all
// service instances. Implementations must make RecordFailedAttempt atomic so
// concurrent failures for the same email are never lost, and must fail
// closed: a backend outage surfaces ErrServiceUnavailable from the
// access-restricting operations (RecordFailedAttempt, IsLocked) instead of
// quietly reporting the account as unlocked. ResetFailedAttempts and
// FailedAttempts are best-effort bookkeeping and fail open.
type LockoutCounter interface {
	// RecordFailedAttempt increments the failure counter for email,
	// refreshes its expiry, and sets the lock marker once the counter
	// reaches the policy threshold.
	RecordFailedAttempt(ctx context.Context, email string) error

	// IsLocked reports whether email is currently locked. A marker whose
	// timestamp shows the window has already elapsed reads as unlocked and
	// is deleted; an unreadable marker reads as locked.
	IsLocked(ctx context.Context, email string) (bool, error)

	// ResetFailedAttempts clears the counter and marker after a successful
	// login. Errors are swallowed so cleanup never blocks a valid login.
	ResetFailedAttempts(ctx context.Context, email string)

	// FailedAttempts returns the current counter value, or 0 on any error.
	// Informational only; it never gates access.
	FailedAttempts(ctx context.Context, email string) int

	// Threshold returns the attempt count that triggers a lock.
	Threshold() int
}

func normalizeLockoutPolicy(p LockoutPolicy) LockoutPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 5
	}
	if p.Window <= 0 {
		p.Window = 15 * time.Minute
	}
	return p
}
