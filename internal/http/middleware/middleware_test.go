package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-task-manager/internal/service"
)

// stubAuthenticator — управляемое решение гарда для тестов.
type stubAuthenticator struct {
	userID string
	err    error
	gotTok string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (string, error) {
	s.gotTok = token
	if s.err != nil {
		return "", s.err
	}
	return s.userID, nil
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var trace []string
	mk := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		trace = append(trace, "handler")
	}), mk("first"), mk("second"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, trace)
}

func TestAuthBearer_ExtractsToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{name: "no_header", header: "", want: ""},
		{name: "bearer", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "bearer_with_spaces", header: "Bearer   abc  ", want: "abc"},
		{name: "not_bearer", header: "Basic dXNlcjpwdw==", want: ""},
		{name: "bearer_empty", header: "Bearer ", want: ""},
		{name: "lowercase_scheme_ignored", header: "bearer abc", want: ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var got string
			h := Chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = TokenFrom(r.Context())
			}), AuthBearer())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, tc.want, got)
		})
	}
}

// TestAuthenticate_NoToken — без токена гард отвечает 401 "Authentication required"
// и не зовёт сервис.
func TestAuthenticate_NoToken(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{userID: "user-1"}
	called := false

	h := Chain(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}), AuthBearer(), Authenticate(auth))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.False(t, called)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Authentication required", decodeMessage(t, rec))
	require.Empty(t, auth.gotTok)
}

// TestAuthenticate_GuardErrors — решения сервиса транслируются в точные
// статусы и сообщения публичного контракта.
func TestAuthenticate_GuardErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{name: "revoked", err: service.ErrTokenRevoked, wantMsg: "Token is invalidated"},
		{name: "invalid", err: service.ErrInvalidToken, wantMsg: "Invalid token"},
		{name: "expired", err: service.ErrTokenExpired, wantMsg: "Invalid token"},
		{name: "wrapped_revoked", err: fmt.Errorf("guard: %w", service.ErrTokenRevoked), wantMsg: "Token is invalidated"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			auth := &stubAuthenticator{err: tc.err}
			h := Chain(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
				t.Fatal("handler must not be reached")
			}), AuthBearer(), Authenticate(auth))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer some-token")

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			require.Equal(t, tc.wantMsg, decodeMessage(t, rec))
			require.Equal(t, "some-token", auth.gotTok)
		})
	}
}

// TestAuthenticate_OK — успешный гард кладёт userID в контекст хендлера.
func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{userID: "user-1"}

	var gotUserID string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = UserIDFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}), AuthBearer(), Authenticate(auth))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-1", gotUserID)
	require.Equal(t, "good-token", auth.gotTok)
}

// TestAuthenticate_Stateless — отказ по одному запросу не влияет на следующий:
// каждый запрос оценивается заново.
func TestAuthenticate_Stateless(t *testing.T) {
	t.Parallel()

	auth := &stubAuthenticator{err: service.ErrTokenRevoked}
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), AuthBearer(), Authenticate(auth))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer tok")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Тот же клиент с валидным решением проходит.
	auth.err = nil
	auth.userID = "user-1"

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	t.Parallel()

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), RequestID())

	// Без заголовка — генерируется hex id из 32 символов.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Len(t, rec.Header().Get("X-Request-Id"), 32)

	// С заголовком — прокидывается как есть.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "client-id-42")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "client-id-42", rec.Header().Get("X-Request-Id"))
}

// TestRecover_PanicBecomes500 — паника в хендлере превращается в 500 JSON.
func TestRecover_PanicBecomes500(t *testing.T) {
	t.Parallel()

	h := Chain(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		panic(errors.New("boom"))
	}), Recover())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal server error", decodeMessage(t, rec))
}
