package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-task-manager/internal/models"
	"github.com/pribylovaa/go-task-manager/internal/pkg/log"
	"github.com/pribylovaa/go-task-manager/internal/storage"
)

// SignUp регистрирует нового пользователя и сразу выпускает токен (auto-login).
//
// Валидация:
//   - username обязателен (после TrimSpace);
//   - email нормализуется и проверяется на формат;
//   - пароль — минимум 8 символов.
//
// Поведение/ошибки:
//   - ErrUserExists — email уже занят (предварительная проверка + уникальный
//     индекс БД на случай гонки);
//   - ErrInvalidEmail / ErrWeakPassword / ErrInvalidArgument — ошибки входа.
func (s *Service) SignUp(ctx context.Context, username, email, password string) (string, error) {
	const op = "service/auth/SignUp"

	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	normEmail, err := validateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(password); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return "", fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.CreateUser(ctx, models.User{
		Username:     username,
		Email:        normEmail,
		PasswordHash: hashedPassword,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	return s.generateAccessToken(ctx, user.ID, time.Now().UTC())
}

// Login выполняет вход по email+пароль.
// Неизвестный email и неверный пароль дают одну и ту же ErrInvalidCredentials:
// по ответу нельзя понять, существует ли аккаунт.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service/auth/Login"

	normEmail, err := validateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.generateAccessToken(ctx, user.ID, time.Now().UTC())
}

// Logout заносит точную строку токена в реестр отозванных.
// Токен намеренно не валидируется: клиент расстаётся с ним в любом случае,
// а запись в реестре переживёт токен не дольше его собственного exp.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "service/auth/Logout"

	lg := log.From(ctx)

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	expiresAt := s.tokenExpiry(token)

	if err := s.storage.RevokeToken(ctx, token, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.rcache != nil {
		if err := s.rcache.MarkRevoked(ctx, token, time.Until(expiresAt)); err != nil {
			// Кэш — ускорение, не источник истины: факт отзыва уже в БД.
			lg.Warn("revocation_cache_mark_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	return nil
}

// Authenticate — решение гарда по токену. Порядок проверок фиксирован:
//  1. пустой токен — ErrAuthRequired;
//  2. токен в реестре отозванных — ErrTokenRevoked (даже если подпись и срок в порядке);
//  3. подпись/структура/срок — ErrInvalidToken / ErrTokenExpired;
//  4. иначе возвращается идентификатор пользователя из токена.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	const op = "service/auth/Authenticate"

	if token == "" {
		return "", fmt.Errorf("%s: %w", op, ErrAuthRequired)
	}

	revoked, err := s.isRevoked(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if revoked {
		return "", fmt.Errorf("%s: %w", op, ErrTokenRevoked)
	}

	userID, err := s.validateAccessToken(token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return userID, nil
}

// isRevoked консультируется с кэшем, затем с реестром в БД.
// Кэш хранит только положительные факты отзыва, поэтому промах кэша
// не может превратить отозванный токен в действительный.
func (s *Service) isRevoked(ctx context.Context, token string) (bool, error) {
	const op = "service/auth/isRevoked"

	if s.rcache != nil {
		hit, err := s.rcache.IsRevoked(ctx, token)
		if err != nil {
			log.From(ctx).Warn("revocation_cache_lookup_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		} else if hit {
			return true, nil
		}
	}

	return s.storage.IsTokenRevoked(ctx, token)
}

// Profile возвращает пользователя по идентификатору из токена.
func (s *Service) Profile(ctx context.Context, userID string) (*models.User, error) {
	const op = "service/auth/Profile"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// ChangePassword меняет пароль после повторной проверки текущего.
// Проверка текущего пароля выполняется независимо от гарда — защита в глубину
// для чувствительной операции.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	const op = "service/auth/ChangePassword"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, currentPassword) {
		return fmt.Errorf("%s: %w", op, ErrWrongPassword)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdateUserPassword(ctx, user.ID, hashedPassword); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service/auth/hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	const op = "service/auth/validateEmail"

	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	return strings.ToLower(email), nil
}

// validatePassword проверяет минимальные требования: длина >= 8 символов.
func validatePassword(pw string) error {
	const op = "service/auth/validatePassword"

	if len([]rune(pw)) < 8 {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}
