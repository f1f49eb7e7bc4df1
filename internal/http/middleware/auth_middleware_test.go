package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/observability"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/security"
)

func newJWTManagerForTest() *security.JWTManager {
	return security.NewJWTManager("enrollment-auth-service", "enrollment-services", "0123456789abcdef0123456789abcdef", time.Hour)
}

func TestTokenVerificationPassesThroughWithoutHeader(t *testing.T) {
	mgr := newJWTManagerForTest()
	var sawClaims bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	TokenVerification(mgr)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if sawClaims {
		t.Fatal("anonymous request must carry no claims")
	}
}

func TestTokenVerificationRejectsBadToken(t *testing.T) {
	mgr := newJWTManagerForTest()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a rejected token")
	})

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	TokenVerification(mgr)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTokenVerificationRejectsWrongSecret(t *testing.T) {
	other := security.NewJWTManager("enrollment-auth-service", "enrollment-services", "another-secret-another-secret-32", time.Hour)
	token, err := other.IssueToken("alice@test.com", "student")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	TokenVerification(newJWTManagerForTest())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestTokenVerificationAttachesClaimsAndRawToken(t *testing.T) {
	mgr := newJWTManagerForTest()
	token, err := mgr.IssueToken("alice@test.com", "faculty")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	var gotSubject, gotRole, gotToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := ClaimsFromContext(r.Context()); ok {
			gotSubject, gotRole = claims.Subject, claims.Role
		}
		gotToken, _ = TokenFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	TokenVerification(mgr)(next).ServeHTTP(httptest.NewRecorder(), req)

	if gotSubject != "alice@test.com" || gotRole != "faculty" {
		t.Fatalf("claims = %q/%q, want alice@test.com/faculty", gotSubject, gotRole)
	}
	if gotToken != token {
		t.Fatal("raw token not attached to context")
	}
}

func TestRequireAuthenticated(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	mgr := newJWTManagerForTest()
	events := observability.NewSecurityEventLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	handler := TokenVerification(mgr)(RequireRole(events, "admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		token, _ := mgr.IssueToken("student@test.com", "student")
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("allowed role", func(t *testing.T) {
		token, _ := mgr.IssueToken("admin@test.com", "admin")
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}
