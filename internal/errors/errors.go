// errors стандартизирует ответы об ошибках HTTP-слоя task-сервиса.
// На вход принимает ошибку сервисного слоя (сентинели из internal/service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Формат ответа намеренно повторяет публичный контракт API: {"message": "..."}.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/go-task-manager/internal/service"
)

// ErrorResponse — единый формат тела ошибки.
// RequestID прокидывается из X-Request-Id, если есть (для трассировки).
type ErrorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и тело ответа.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - неизвестная ошибка — 500 с generic-сообщением (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"}
	}

	status, msg := baseFromService(err)
	return status, ErrorResponse{Message: msg}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	// Прокидываем request_id, чтобы клиент мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromService — базовый маппинг сервисных сентинелей -> HTTP-статус/сообщение.
// Сообщения — часть публичного контракта (их проверяют клиенты), поэтому
// зафиксированы здесь, а не размазаны по хендлерам.
func baseFromService(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrUserExists):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid email or password"
	case errors.Is(err, service.ErrWrongPassword):
		return http.StatusBadRequest, "Current password is incorrect"
	case errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest, "Invalid email"
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, "Password must be at least 8 characters"
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, service.ErrAuthRequired):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, service.ErrNoToken):
		return http.StatusUnauthorized, "No token provided"
	case errors.Is(err, service.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token is invalidated"
	case errors.Is(err, service.ErrInvalidToken), errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound, "Task not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
