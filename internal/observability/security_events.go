package observability

import (
	"context"
	"log/slog"
	"time"
)

// Security event types consumed by operational tooling. The stream is
// append-only: every authentication attempt, lockout, password-change
// outcome, and access-control rejection emits exactly one event.
const (
	EventAuthSuccess           = "AUTH_SUCCESS"
	EventAuthFailure           = "AUTH_FAILURE"
	EventAccountLockout        = "ACCOUNT_LOCKOUT"
	EventValidationFailure     = "VALIDATION_FAILURE"
	EventAccessDenied          = "ACCESS_DENIED"
	EventPasswordChange        = "PASSWORD_CHANGE"
	EventPasswordChangeFailure = "PASSWORD_CHANGE_FAILURE"
	EventReauthSuccess         = "REAUTH_SUCCESS"
	EventReauthFailure         = "REAUTH_FAILURE"
)

// SecurityEventLogger writes the structured security event stream through the
// app's slog pipeline, marked with log_type=security_event for downstream
// filtering.
type SecurityEventLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewSecurityEventLogger(logger *slog.Logger) *SecurityEventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecurityEventLogger{logger: logger.With("log_type", "security_event"), now: time.Now}
}

func (l *SecurityEventLogger) AuthSuccess(ctx context.Context, email, ip string) {
	l.emit(ctx, slog.LevelInfo, EventAuthSuccess, "email", email, "ip", ip, "outcome", "success")
}

func (l *SecurityEventLogger) AuthFailure(ctx context.Context, email, ip, reason string) {
	l.emit(ctx, slog.LevelWarn, EventAuthFailure, "email", email, "ip", ip, "outcome", "failure", "reason", reason)
}

func (l *SecurityEventLogger) AccountLockout(ctx context.Context, email string, attempts int) {
	l.emit(ctx, slog.LevelWarn, EventAccountLockout, "email", email, "attempts", attempts, "outcome", "locked")
}

func (l *SecurityEventLogger) ValidationFailure(ctx context.Context, endpoint, field, reason string) {
	l.emit(ctx, slog.LevelError, EventValidationFailure, "endpoint", endpoint, "field", field, "reason", reason)
}

func (l *SecurityEventLogger) AccessDenied(ctx context.Context, email, resource, action string) {
	l.emit(ctx, slog.LevelError, EventAccessDenied, "email", email, "resource", resource, "action", action)
}

func (l *SecurityEventLogger) PasswordChange(ctx context.Context, email string) {
	l.emit(ctx, slog.LevelInfo, EventPasswordChange, "email", email, "outcome", "success")
}

func (l *SecurityEventLogger) PasswordChangeFailure(ctx context.Context, email, reason string) {
	l.emit(ctx, slog.LevelWarn, EventPasswordChangeFailure, "email", email, "outcome", "failure", "reason", reason)
}

func (l *SecurityEventLogger) ReauthSuccess(ctx context.Context, email string) {
	l.emit(ctx, slog.LevelInfo, EventReauthSuccess, "email", email, "outcome", "success")
}

func (l *SecurityEventLogger) ReauthFailure(ctx context.Context, email string) {
	l.emit(ctx, slog.LevelWarn, EventReauthFailure, "email", email, "outcome", "failure")
}

func (l *SecurityEventLogger) emit(ctx context.Context, level slog.Level, eventType string, attrs ...any) {
	base := []any{"type", eventType, "timestamp", l.now().UTC().Format(time.RFC3339)}
	l.logger.Log(ctx, level, "security_event", append(base, attrs...)...)
}
