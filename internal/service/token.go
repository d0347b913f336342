package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/go-task-manager/internal/pkg/log"
)

type accessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// generateAccessToken генерирует access-токен (HS256, срок — cfg.Auth.AccessTokenTTL).
// Случайный jti гарантирует, что два выпуска для одного пользователя
// дают разные токены даже в пределах одной секунды.
func (s *Service) generateAccessToken(ctx context.Context, userID string, now time.Time) (string, error) {
	const op = "service/token/generateAccessToken"

	lg := log.From(ctx)

	claims := accessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        randomTokenID(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Auth.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Auth.Issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings(s.cfg.Auth.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Auth.JWTSecret))
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken валидирует access-токен и возвращает идентификатор пользователя.
func (s *Service) validateAccessToken(tokenStr string) (string, error) {
	const op = "service/token/validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.Auth.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Auth.Issuer),
		jwt.WithAudience(s.cfg.Auth.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.UserID == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims.UserID, nil
}

// tokenExpiry достаёт exp из токена без проверки подписи.
// Нужен только реестру отзыва: по exp запись чистится TTL-индексом.
// Если структура не читается — остаёмся на now + AccessTokenTTL.
func (s *Service) tokenExpiry(tokenStr string) time.Time {
	claims := accessClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err == nil {
		if claims.ExpiresAt != nil {
			return claims.ExpiresAt.Time.UTC()
		}
	}

	return time.Now().UTC().Add(s.cfg.Auth.AccessTokenTTL)
}

// randomTokenID — криптографически стойкий hex id (32 символа) для jti.
func randomTokenID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
