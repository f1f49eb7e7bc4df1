package security

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestJWTManager(ttl time.Duration) *JWTManager {
	return NewJWTManager("enrollment-auth-service", "enrollment-services", testSecret, ttl)
}

func TestIssueAndVerifyToken(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)
	token, err := mgr.IssueToken("alice@test.com", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := mgr.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "alice@test.com" {
		t.Fatalf("subject = %q, want alice@test.com", claims.Subject)
	}
	if claims.Role != "student" {
		t.Fatalf("role = %q, want student", claims.Role)
	}
}

func TestVerifyTokenExpiryBoundary(t *testing.T) {
	mgr := newTestJWTManager(time.Minute)
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mgr.now = func() time.Time { return issuedAt }

	token, err := mgr.IssueToken("bob@test.com", "faculty")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Still valid just before expiry.
	mgr.now = func() time.Time { return issuedAt.Add(59 * time.Second) }
	if _, err := mgr.VerifyToken(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	mgr.now = func() time.Time { return issuedAt.Add(61 * time.Second) }
	if _, err := mgr.VerifyToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)
	token, err := mgr.IssueToken("carol@test.com", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewJWTManager("enrollment-auth-service", "enrollment-services", "another-secret-another-secret-32", time.Hour)
	if _, err := other.VerifyToken(token); !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestVerifyTokenMalformed(t *testing.T) {
	mgr := newTestJWTManager(time.Hour)
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := mgr.VerifyToken(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("VerifyToken(%q) = %v, want ErrTokenMalformed", raw, err)
		}
	}
}

func TestVerifyTokenWrongIssuer(t *testing.T) {
	other := NewJWTManager("some-other-service", "enrollment-services", testSecret, time.Hour)
	token, err := other.IssueToken("dave@test.com", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mgr := newTestJWTManager(time.Hour)
	if _, err := mgr.VerifyToken(token); err == nil {
		t.Fatal("expected verification to reject foreign issuer")
	}
}
