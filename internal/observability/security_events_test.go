package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func newCapturedEventLogger(t *testing.T) (*SecurityEventLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	return NewSecurityEventLogger(logger), buf
}

func decodeEvent(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode event: %v (%s)", err, buf.String())
	}
	return entry
}

func TestSecurityEventShape(t *testing.T) {
	events, buf := newCapturedEventLogger(t)
	events.AuthFailure(context.Background(), "alice@test.com", "10.0.0.1", "invalid_password")

	entry := decodeEvent(t, buf)
	if entry["type"] != EventAuthFailure {
		t.Fatalf("type = %v, want %s", entry["type"], EventAuthFailure)
	}
	if entry["log_type"] != "security_event" {
		t.Fatalf("log_type = %v, want security_event", entry["log_type"])
	}
	if entry["email"] != "alice@test.com" || entry["ip"] != "10.0.0.1" {
		t.Fatalf("missing identity fields: %v", entry)
	}
	if entry["reason"] != "invalid_password" {
		t.Fatalf("reason = %v", entry["reason"])
	}
	if _, ok := entry["timestamp"].(string); !ok {
		t.Fatal("expected timestamp field")
	}
}

func TestSecurityEventTypes(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		emit func(*SecurityEventLogger)
		want string
	}{
		{"auth success", func(l *SecurityEventLogger) { l.AuthSuccess(ctx, "a@test.com", "ip") }, EventAuthSuccess},
		{"lockout", func(l *SecurityEventLogger) { l.AccountLockout(ctx, "a@test.com", 5) }, EventAccountLockout},
		{"validation failure", func(l *SecurityEventLogger) { l.ValidationFailure(ctx, "/register", "body", "bad") }, EventValidationFailure},
		{"access denied", func(l *SecurityEventLogger) { l.AccessDenied(ctx, "a@test.com", "/users", "GET") }, EventAccessDenied},
		{"password change", func(l *SecurityEventLogger) { l.PasswordChange(ctx, "a@test.com") }, EventPasswordChange},
		{"password change failure", func(l *SecurityEventLogger) { l.PasswordChangeFailure(ctx, "a@test.com", "reused") }, EventPasswordChangeFailure},
		{"reauth success", func(l *SecurityEventLogger) { l.ReauthSuccess(ctx, "a@test.com") }, EventReauthSuccess},
		{"reauth failure", func(l *SecurityEventLogger) { l.ReauthFailure(ctx, "a@test.com") }, EventReauthFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events, buf := newCapturedEventLogger(t)
			tc.emit(events)
			entry := decodeEvent(t, buf)
			if entry["type"] != tc.want {
				t.Fatalf("type = %v, want %s", entry["type"], tc.want)
			}
		})
	}
}
