package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/domain"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/health"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/handler"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/middleware"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/response"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/observability"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/security"
)

type Dependencies struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	JWTManager       *security.JWTManager
	SecurityEvents   *observability.SecurityEventLogger
	RateLimiter      *middleware.RedisFixedWindowLimiter
	CORSOrigins      []string
	AuthRateLimitRPM int
	APIRateLimitRPM  int
	Readiness        *health.ProbeRunner
	EnableOTelHTTP   bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	passthrough := func(next http.Handler) http.Handler { return next }
	apiLimiter := passthrough
	authLimiter := passthrough
	if dep.RateLimiter != nil {
		apiLimiter = middleware.RateLimit(dep.RateLimiter, "api", dep.APIRateLimitRPM)
		authLimiter = middleware.RateLimit(dep.RateLimiter, "auth", dep.AuthRateLimitRPM)
	}
	r.Use(apiLimiter)

	// Every route sees the verification filter: requests without a bearer
	// token pass through anonymously, requests with a bad token get 401.
	r.Use(middleware.TokenVerification(dep.JWTManager))

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuthenticated)
				r.With(authLimiter).Post("/reauthenticate", dep.AuthHandler.Reauthenticate)
				r.With(authLimiter).Post("/change-password", dep.AuthHandler.ChangePassword)
			})
		})

		r.With(middleware.RequireAuthenticated).Get("/me", dep.AuthHandler.Me)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated)
			r.With(middleware.RequireRole(dep.SecurityEvents, domain.RoleAdmin)).Get("/", dep.UserHandler.List)
			r.Get("/{id}", dep.UserHandler.GetByID)
			r.Get("/email/{email}", dep.UserHandler.GetByEmail)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
