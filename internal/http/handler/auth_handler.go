package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/middleware"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/response"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/observability"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/security"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/service"
)

type AuthHandler struct {
	authSvc *service.AuthService
	events  *observability.SecurityEventLogger
}

func NewAuthHandler(authSvc *service.AuthService, events *observability.SecurityEventLogger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, events: events}
}

type registerRequest struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Role             string `json:"role"`
	SecurityQuestion string `json:"security_question,omitempty"`
	SecurityAnswer   string `json:"security_answer,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type reauthRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type authResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        string    `json:"role"`
	LastLoginAt string    `json:"last_login_at,omitempty"`
	LastLoginIP string    `json:"last_login_ip,omitempty"`
}

func newAuthResponse(result *service.LoginResult) authResponse {
	resp := authResponse{
		Token:       result.Token,
		ExpiresAt:   result.ExpiresAt,
		Email:       result.Email,
		FirstName:   result.FirstName,
		LastName:    result.LastName,
		Role:        result.Role,
		LastLoginIP: result.LastLoginIP,
	}
	if result.LastLoginAt != nil {
		resp.LastLoginAt = result.LastLoginAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "register", status, time.Since(start))
	}()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status = "failure"
		h.events.ValidationFailure(r.Context(), r.URL.Path, "body", "malformed_json")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	result, err := h.authSvc.Register(r.Context(), service.RegisterInput{
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Role:             req.Role,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	})
	if err != nil {
		status = "failure"
		h.events.ValidationFailure(r.Context(), r.URL.Path, "registration", err.Error())
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.register.success", "email", result.Email, "role", result.Role)
	response.JSON(w, r, http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "login", status, time.Since(start))
	}()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		status = "failure"
		h.events.ValidationFailure(r.Context(), r.URL.Path, "body", "missing_credentials")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "email and password are required", nil)
		return
	}
	result, err := h.authSvc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       clientIP(r),
	})
	if err != nil {
		status = "failure"
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.login.success", "email", result.Email)
	response.JSON(w, r, http.StatusOK, newAuthResponse(result))
}

func (h *AuthHandler) Reauthenticate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "reauthenticate", status, time.Since(start))
	}()

	claims, token, ok := callerIdentity(r)
	if !ok {
		status = "failure"
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	var req reauthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		status = "failure"
		h.events.ValidationFailure(r.Context(), r.URL.Path, "body", "missing_credentials")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "password is required", nil)
		return
	}
	// The marker belongs to the token's subject, whatever email the body
	// claims.
	if err := h.authSvc.Reauthenticate(r.Context(), token, claims.Subject, req.Password); err != nil {
		status = "failure"
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.reauthenticate.success", "email", claims.Subject)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "re-authentication successful"})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := "success"
	defer func() {
		observability.RecordAuthRequestDuration(r.Context(), "change_password", status, time.Since(start))
	}()

	claims, token, ok := callerIdentity(r)
	if !ok {
		status = "failure"
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		status = "failure"
		h.events.ValidationFailure(r.Context(), r.URL.Path, "body", "missing_passwords")
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "current and new password are required", nil)
		return
	}
	if err := h.authSvc.ChangePassword(r.Context(), token, claims.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		status = "failure"
		writeAuthError(w, r, err)
		return
	}
	observability.Audit(r, "auth.change_password.success", "email", claims.Subject)
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "password changed successfully"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, _, ok := callerIdentity(r)
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing access token", nil)
		return
	}
	user, err := h.authSvc.UserByEmail(claims.Subject)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func callerIdentity(r *http.Request) (*security.Claims, string, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, "", false
	}
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		return nil, "", false
	}
	return claims, token, true
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// writeAuthError maps service sentinels onto statuses without leaking which
// check failed.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username and/or password", nil)
	case errors.Is(err, service.ErrAccountLocked):
		response.Error(w, r, http.StatusForbidden, "ACCOUNT_LOCKED", "account temporarily locked, try again later", nil)
	case errors.Is(err, service.ErrServiceUnavailable):
		response.Error(w, r, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "authentication service unavailable", nil)
	case errors.Is(err, service.ErrReauthRequired):
		response.Error(w, r, http.StatusForbidden, "REAUTH_REQUIRED", "re-authentication required for sensitive operations", nil)
	case errors.Is(err, security.ErrPasswordTooWeak):
		response.Error(w, r, http.StatusBadRequest, "PASSWORD_TOO_WEAK", "password does not meet complexity requirements", nil)
	case errors.Is(err, service.ErrPasswordReused):
		response.Error(w, r, http.StatusBadRequest, "PASSWORD_REUSED", "password has been used recently", nil)
	case errors.Is(err, service.ErrPasswordTooNew):
		response.Error(w, r, http.StatusBadRequest, "PASSWORD_TOO_NEW", "password must be at least 24 hours old before it can be changed", nil)
	case errors.Is(err, service.ErrInvalidSecurityQuestion):
		response.Error(w, r, http.StatusBadRequest, "INVALID_SECURITY_QUESTION", "security question is not on the approved list", nil)
	case errors.Is(err, service.ErrInvalidRole):
		response.Error(w, r, http.StatusBadRequest, "INVALID_ROLE", "role is not registerable", nil)
	case errors.Is(err, service.ErrUserExists):
		response.Error(w, r, http.StatusConflict, "USER_EXISTS", "user already exists", nil)
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
	default:
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	}
}
