package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-task-manager/internal/errors"
	"github.com/pribylovaa/go-task-manager/internal/http/middleware"
	"github.com/pribylovaa/go-task-manager/internal/service"
)

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp регистрирует пользователя и сразу возвращает токен (auto-login).
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var in signUpRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	token, err := h.Svc.SignUp(r.Context(), in.Username, in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

// Login выпускает токен по email+пароль.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	token, err := h.Svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Logout отзывает предъявленный токен. Маршрут не за гардом: токен нужен,
// но его валидность не проверяется — клиент расстаётся с ним в любом случае.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFrom(r.Context())
	if token == "" {
		apierrors.WriteError(w, r, service.ErrNoToken)
		return
	}

	if err := h.Svc.Logout(r.Context(), token); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}
