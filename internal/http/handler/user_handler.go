package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/http/response"
	"github.com/KrizTahimic/CSSECDV-Case-Study-OnlineEnrollmentSystem-sub000/internal/service"
)

// UserHandler exposes directory lookups used by the other enrollment
// services (course, grade) to resolve instructors and students.
type UserHandler struct {
	authSvc *service.AuthService
}

func NewUserHandler(authSvc *service.AuthService) *UserHandler {
	return &UserHandler{authSvc: authSvc}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.Users(r.URL.Query().Get("role"))
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list users", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, users)
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.UserByID(chi.URLParam(r, "id"))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.UserByEmail(chi.URLParam(r, "email"))
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, user)
}
