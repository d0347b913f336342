package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-task-manager/internal/config"
)

func testCfg() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "unit-secret",
			AccessTokenTTL: 30 * time.Minute,
			Issuer:         "task-service",
			Audience:       []string{"task-api"},
		},
		Limits: config.LimitsConfig{
			Default: 10,
			Max:     100,
		},
	}
}

// TestGenerateValidateAccessToken_RoundTrip — выпущенный токен проходит
// валидацию и возвращает исходный userID.
func TestGenerateValidateAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())

	token, err := svc.generateAccessToken(context.Background(), "user-1", time.Now().UTC())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	uid, err := svc.validateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", uid)
}

// TestGenerateAccessToken_DistinctWithinSameSecond — два выпуска для одного
// пользователя в один и тот же момент дают разные токены (случайный jti).
func TestGenerateAccessToken_DistinctWithinSameSecond(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())
	now := time.Now().UTC()

	t1, err := svc.generateAccessToken(context.Background(), "user-1", now)
	require.NoError(t, err)
	t2, err := svc.generateAccessToken(context.Background(), "user-1", now)
	require.NoError(t, err)

	require.NotEqual(t, t1, t2)
}

// TestValidateAccessToken_WrongSecret — токен, подписанный другим секретом,
// отклоняется как ErrInvalidToken.
func TestValidateAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	issuer := New(nil, testCfg())
	token, err := issuer.generateAccessToken(context.Background(), "user-1", time.Now().UTC())
	require.NoError(t, err)

	other := testCfg()
	other.Auth.JWTSecret = "another-secret"
	verifier := New(nil, other)

	_, err = verifier.validateAccessToken(token)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

// TestValidateAccessToken_Expired — просроченный токен даёт ErrTokenExpired.
func TestValidateAccessToken_Expired(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())

	// Выпуск в прошлом: exp = -2h + 30m < now даже с учётом leeway.
	token, err := svc.generateAccessToken(context.Background(), "user-1", time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)

	_, err = svc.validateAccessToken(token)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

// TestValidateAccessToken_Malformed — мусорная строка отклоняется.
func TestValidateAccessToken_Malformed(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())

	for _, tok := range []string{"", "garbage", "a.b.c", "header.payload"} {
		_, err := svc.validateAccessToken(tok)
		require.Error(t, err, "token %q", tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	}
}

// TestValidateAccessToken_WrongAlg — токен с alg=none не принимается,
// даже если остальные клеймы корректны.
func TestValidateAccessToken_WrongAlg(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())

	claims := accessClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Issuer:    "task-service",
			Audience:  jwt.ClaimStrings{"task-api"},
		},
	}
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.validateAccessToken(tok)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

// TestValidateAccessToken_WrongIssuer — чужой issuer отклоняется.
func TestValidateAccessToken_WrongIssuer(t *testing.T) {
	t.Parallel()

	other := testCfg()
	other.Auth.Issuer = "other-service"
	issuer := New(nil, other)

	token, err := issuer.generateAccessToken(context.Background(), "user-1", time.Now().UTC())
	require.NoError(t, err)

	verifier := New(nil, testCfg())
	_, err = verifier.validateAccessToken(token)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

// TestTokenExpiry_FromClaims — exp достаётся из токена без проверки подписи.
func TestTokenExpiry_FromClaims(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())
	now := time.Now().UTC()

	token, err := svc.generateAccessToken(context.Background(), "user-1", now)
	require.NoError(t, err)

	exp := svc.tokenExpiry(token)
	require.WithinDuration(t, now.Add(svc.cfg.Auth.AccessTokenTTL), exp, 2*time.Second)
}

// TestTokenExpiry_Garbage — нечитаемый токен даёт запасной now+TTL.
func TestTokenExpiry_Garbage(t *testing.T) {
	t.Parallel()

	svc := New(nil, testCfg())

	exp := svc.tokenExpiry("not-a-jwt")
	require.WithinDuration(t, time.Now().UTC().Add(svc.cfg.Auth.AccessTokenTTL), exp, 2*time.Second)
}

// TestRandomTokenID — 32 hex-символа, значения не повторяются.
func TestRandomTokenID(t *testing.T) {
	t.Parallel()

	a := randomTokenID()
	b := randomTokenID()
	require.Len(t, a, 32)
	require.Len(t, b, 32)
	require.NotEqual(t, a, b)
}
