package middleware

import (
	"net/http"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/response"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/observability"
)

// RequireRole guards a route with a role allow-list. It consumes only the
// {subject, role} pair the token filter attached; it never re-reads the
// credential store. Rejections emit an ACCESS_DENIED security event.
func RequireRole(events *observability.SecurityEventLogger, roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
				return
			}
			if _, ok := allowed[claims.Role]; !ok {
				events.AccessDenied(r.Context(), claims.Subject, r.URL.Path, r.Method)
				observability.RecordAccessDenied(r.Context(), r.URL.Path)
				response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient role", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
