package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-task-manager/internal/models"
	"github.com/pribylovaa/go-task-manager/internal/storage"
	"github.com/pribylovaa/go-task-manager/mocks"
)

func newSvc(t *testing.T) (*Service, *mocks.MockStorage, *gomock.Controller) {
	t.Helper()
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	svc := New(st, testCfg())
	return svc, st, ctrl
}

func mustHashPW(t *testing.T, pw string) string {
	t.Helper()
	h, err := hashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestSignUp_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	email := "User@Example.com"
	norm := "user@example.com"

	// Сначала UserByEmail → ErrNotFound, потом CreateUser.
	st.EXPECT().UserByEmail(gomock.Any(), norm).Return(nil, storage.ErrNotFound)
	st.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u models.User) (*models.User, error) {
			require.Equal(t, "alice", u.Username)
			require.Equal(t, norm, u.Email)
			require.NotEmpty(t, u.PasswordHash)
			require.NotEqual(t, "password123", u.PasswordHash)

			u.ID = "user-1"
			return &u, nil
		})

	token, err := svc.SignUp(ctx, "  alice  ", email, "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Токен сразу пригоден для аутентификации и несёт ID нового пользователя.
	uid, err := svc.validateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", uid)
}

func TestSignUp_EmptyUsername(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.SignUp(context.Background(), "   ", "u@e.com", "password123")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSignUp_InvalidEmail(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.SignUp(context.Background(), "alice", "not-an-email", "password123")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidEmail)
}

func TestSignUp_WeakPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.SignUp(context.Background(), "alice", "u@e.com", "short")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestSignUp_EmailAlreadyExists_OnLookup(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Если UserByEmail вернул пользователя (err == nil) — email занят.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(&models.User{ID: "user-1", Email: "user@example.com"}, nil)

	_, err := svc.SignUp(context.Background(), "alice", "user@example.com", "password123")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestSignUp_CreateRace_MapsToUserExists(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	// Гонка: проверка прошла, но уникальный индекс БД отверг вставку.
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)
	st.EXPECT().CreateUser(gomock.Any(), gomock.Any()).
		Return(nil, storage.ErrAlreadyExists)

	_, err := svc.SignUp(context.Background(), "alice", "user@example.com", "password123")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserExists)
}

func TestSignUp_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, errors.New("db down"))

	_, err := svc.SignUp(context.Background(), "alice", "user@example.com", "password123")
	require.Error(t, err)
}

func TestLogin_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	email := "user@example.com"
	pw := "password123"
	user := &models.User{
		ID:           "user-1",
		Email:        email,
		PasswordHash: mustHashPW(t, pw),
	}

	st.EXPECT().UserByEmail(gomock.Any(), email).Return(user, nil)

	token, err := svc.Login(context.Background(), email, pw)
	require.NoError(t, err)

	uid, err := svc.validateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, uid)
}

// TestLogin_UnknownEmailAndWrongPassword_SameError — по ошибке нельзя понять,
// существует ли аккаунт: оба случая дают одинаковую ErrInvalidCredentials.
func TestLogin_UnknownEmailAndWrongPassword_SameError(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "nobody@example.com").
		Return(nil, storage.ErrNotFound)

	_, errUnknown := svc.Login(context.Background(), "nobody@example.com", "password123")
	require.ErrorIs(t, errUnknown, ErrInvalidCredentials)

	user := &models.User{
		ID:           "user-1",
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "password123"),
	}
	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").Return(user, nil)

	_, errWrong := svc.Login(context.Background(), "user@example.com", "wrong-password")
	require.ErrorIs(t, errWrong, ErrInvalidCredentials)
}

func TestLogin_InvalidEmailOrEmptyPassword(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Login(context.Background(), "not-an-email", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "user@example.com", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

// TestLogin_TokensDistinct — повторный вход выпускает другой токен.
func TestLogin_TokensDistinct(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           "user-1",
		Email:        "user@example.com",
		PasswordHash: mustHashPW(t, "password123"),
	}
	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil).Times(2)

	t1, err := svc.Login(context.Background(), user.Email, "password123")
	require.NoError(t, err)
	t2, err := svc.Login(context.Background(), user.Email, "password123")
	require.NoError(t, err)

	require.NotEqual(t, t1, t2)
}

func TestLogout_NoToken(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	err := svc.Logout(context.Background(), "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNoToken)
}

// TestLogout_RevokesExactTokenUntilExpiry — в реестр попадает точная строка
// токена с его собственным exp.
func TestLogout_RevokesExactTokenUntilExpiry(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	now := time.Now().UTC()
	token, err := svc.generateAccessToken(context.Background(), "user-1", now)
	require.NoError(t, err)

	st.EXPECT().RevokeToken(gomock.Any(), token, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, expiresAt time.Time) error {
			require.WithinDuration(t, now.Add(svc.cfg.Auth.AccessTokenTTL), expiresAt, 2*time.Second)
			return nil
		})

	require.NoError(t, svc.Logout(context.Background(), token))
}

// TestLogout_DoesNotValidateToken — отзывается даже невалидный токен.
func TestLogout_DoesNotValidateToken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().RevokeToken(gomock.Any(), "garbage-token", gomock.Any()).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "garbage-token"))
}

func TestLogout_StorageError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().RevokeToken(gomock.Any(), "tok", gomock.Any()).
		Return(errors.New("db down"))

	err := svc.Logout(context.Background(), "tok")
	require.Error(t, err)
}

func TestAuthenticate_EmptyToken(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.Authenticate(context.Background(), "")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAuthRequired)
}

func TestAuthenticate_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	token, err := svc.generateAccessToken(context.Background(), "user-1", time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().IsTokenRevoked(gomock.Any(), token).Return(false, nil)

	uid, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", uid)
}

// TestAuthenticate_RevokedBeatsValidity — отзыв проверяется раньше подписи:
// даже структурно валидный токен после logout даёт ErrTokenRevoked.
func TestAuthenticate_RevokedBeatsValidity(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	token, err := svc.generateAccessToken(context.Background(), "user-1", time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().IsTokenRevoked(gomock.Any(), token).Return(true, nil)

	_, err = svc.Authenticate(context.Background(), token)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenRevoked)
}

// TestAuthenticate_RevokedGarbage — отозванный мусорный токен тоже даёт
// ErrTokenRevoked, а не ErrInvalidToken (порядок проверок фиксирован).
func TestAuthenticate_RevokedGarbage(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().IsTokenRevoked(gomock.Any(), "garbage").Return(true, nil)

	_, err := svc.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().IsTokenRevoked(gomock.Any(), "garbage").Return(false, nil)

	_, err := svc.Authenticate(context.Background(), "garbage")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	token, err := svc.generateAccessToken(context.Background(), "user-1", time.Now().UTC().Add(-2*time.Hour))
	require.NoError(t, err)

	st.EXPECT().IsTokenRevoked(gomock.Any(), token).Return(false, nil)

	_, err = svc.Authenticate(context.Background(), token)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthenticate_RegistryError_Propagated(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().IsTokenRevoked(gomock.Any(), "tok").
		Return(false, errors.New("db down"))

	_, err := svc.Authenticate(context.Background(), "tok")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTokenRevoked)
}

// fakeRevocationCache — стаб кэша отзыва для проверки порядка консультаций.
type fakeRevocationCache struct {
	hit    bool
	err    error
	marked map[string]time.Duration
}

func (f *fakeRevocationCache) IsRevoked(_ context.Context, _ string) (bool, error) {
	return f.hit, f.err
}

func (f *fakeRevocationCache) MarkRevoked(_ context.Context, token string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	if f.marked == nil {
		f.marked = map[string]time.Duration{}
	}
	f.marked[token] = ttl
	return nil
}

func (f *fakeRevocationCache) Close() error { return nil }

// TestAuthenticate_CacheHit_SkipsStorage — положительный ответ кэша
// не требует похода в БД.
func TestAuthenticate_CacheHit_SkipsStorage(t *testing.T) {
	t.Parallel()

	svc, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	svc.SetRevocationCache(&fakeRevocationCache{hit: true})

	_, err := svc.Authenticate(context.Background(), "tok")
	require.ErrorIs(t, err, ErrTokenRevoked)
}

// TestAuthenticate_CacheError_FallsBackToStorage — сбой кэша не роняет запрос:
// источник истины — реестр в БД.
func TestAuthenticate_CacheError_FallsBackToStorage(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	svc.SetRevocationCache(&fakeRevocationCache{err: errors.New("redis down")})

	token, err := svc.generateAccessToken(context.Background(), "user-1", time.Now().UTC())
	require.NoError(t, err)

	st.EXPECT().IsTokenRevoked(gomock.Any(), token).Return(false, nil)

	uid, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "user-1", uid)
}

// TestLogout_CacheFailure_NotFatal — ошибка записи в кэш не мешает logout:
// факт отзыва уже зафиксирован в БД.
func TestLogout_CacheFailure_NotFatal(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	svc.SetRevocationCache(&fakeRevocationCache{err: errors.New("redis down")})

	st.EXPECT().RevokeToken(gomock.Any(), "tok", gomock.Any()).Return(nil)

	require.NoError(t, svc.Logout(context.Background(), "tok"))
}

func TestProfile_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{ID: "user-1", Username: "alice", Email: "user@example.com"}
	st.EXPECT().UserByID(gomock.Any(), "user-1").Return(user, nil)

	got, err := svc.Profile(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, user, got)
}

func TestProfile_NotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	_, err := svc.Profile(context.Background(), "missing")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword_OK(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           "user-1",
		PasswordHash: mustHashPW(t, "old-password"),
	}

	st.EXPECT().UserByID(gomock.Any(), "user-1").Return(user, nil)
	st.EXPECT().UpdateUserPassword(gomock.Any(), "user-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _, hash string) error {
			// В БД уходит новый bcrypt-хэш, не сам пароль.
			require.NotEqual(t, "new-password", hash)
			require.True(t, checkPassword(hash, "new-password"))
			return nil
		})

	err := svc.ChangePassword(context.Background(), "user-1", "old-password", "new-password")
	require.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           "user-1",
		PasswordHash: mustHashPW(t, "old-password"),
	}
	st.EXPECT().UserByID(gomock.Any(), "user-1").Return(user, nil)

	err := svc.ChangePassword(context.Background(), "user-1", "not-the-password", "new-password")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWrongPassword)
}

func TestChangePassword_WeakNewPassword(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	user := &models.User{
		ID:           "user-1",
		PasswordHash: mustHashPW(t, "old-password"),
	}
	st.EXPECT().UserByID(gomock.Any(), "user-1").Return(user, nil)

	err := svc.ChangePassword(context.Background(), "user-1", "old-password", "short")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestChangePassword_UserNotFound(t *testing.T) {
	t.Parallel()

	svc, st, ctrl := newSvc(t)
	defer ctrl.Finish()

	st.EXPECT().UserByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)

	err := svc.ChangePassword(context.Background(), "missing", "old-password", "new-password")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUserNotFound)
}
