package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/pribylovaa/go-task-manager/internal/errors"
	"github.com/pribylovaa/go-task-manager/internal/service"
)

// Authenticator — контракт гарда к сервисному слою.
// Интерфейс узкий намеренно: мидлвару нужно только решение по токену.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// AuthBearer извлекает Bearer-токен из Authorization и кладёт «сырой» токен
// в контекст. Токен здесь не проверяется: решение принимает Authenticate,
// а logout использует сырой токен как есть.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if auth != "" {
				const prefix = "Bearer "
				if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
					token := strings.TrimSpace(auth[len(prefix):])

					if token != "" {
						ctx := context.WithValue(r.Context(), ctxAuthToken, token)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate — гард защищённых маршрутов. Решение по каждому запросу
// принимается один раз, без памяти о прошлых запросах того же клиента:
//  1. нет токена (заголовок отсутствует или не Bearer) — 401 "Authentication required";
//  2. токен отозван — 401 "Token is invalidated";
//  3. подпись/срок не проходят — 401 "Invalid token";
//  4. иначе идентификатор пользователя попадает в контекст для хендлеров.
func Authenticate(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFrom(r.Context())
			if token == "" {
				apierrors.WriteError(w, r, service.ErrAuthRequired)
				return
			}

			userID, err := a.Authenticate(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
