package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-task-manager/internal/errors"
	"github.com/pribylovaa/go-task-manager/internal/http/middleware"
	"github.com/pribylovaa/go-task-manager/internal/service"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Profile возвращает профиль аутентифицированного пользователя.
// Хэш пароля не сериализуется (json:"-" на модели).
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFrom(r.Context())

	user, err := h.Svc.Profile(r.Context(), userID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ChangePassword меняет пароль после повторной проверки текущего.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	userID := middleware.UserIDFrom(r.Context())

	if err := h.Svc.ChangePassword(r.Context(), userID, in.CurrentPassword, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Password changed successfully!"})
}
