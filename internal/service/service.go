// service содержит бизнес-логику task-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку/отзыв токенов
// и операции над задачами через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"

	"github.com/pribylovaa/go-task-manager/internal/cache"
	"github.com/pribylovaa/go-task-manager/internal/config"
	"github.com/pribylovaa/go-task-manager/internal/storage"
)

var (
	// ErrInvalidCredentials — пара email/пароль неверна или пользователь не найден.
	// Намеренно единая ошибка для обоих случаев: ответ не раскрывает, что именно
	// не совпало и существует ли аккаунт. HTTP 400.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists — email уже занят другим пользователем. HTTP 400.
	ErrUserExists = errors.New("user already exists")

	// ErrAuthRequired — запрос к защищённому маршруту без Bearer-токена. HTTP 401.
	ErrAuthRequired = errors.New("authentication required")

	// ErrNoToken — logout без токена в заголовке. HTTP 401.
	ErrNoToken = errors.New("no token provided")

	// ErrInvalidToken — токен некорректен по формату/подписи. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenRevoked — токен отозван через logout и недействителен
	// независимо от подписи и срока. HTTP 401.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrUserNotFound — пользователь отсутствует в хранилище. HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrTaskNotFound — задача отсутствует в хранилище. HTTP 404.
	ErrTaskNotFound = errors.New("task not found")

	// ErrWrongPassword — текущий пароль не совпал при смене пароля. HTTP 400.
	ErrWrongPassword = errors.New("wrong current password")

	// ErrInvalidEmail — email имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrInvalidArgument — неверные входные параметры запроса к сервису. HTTP 400.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInternal — внутренняя ошибка (сторадж/БД/контекст и т.д.). HTTP 500.
	ErrInternal = errors.New("internal")
)

// Service описывает бизнес-логику task-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.Config
	rcache  cache.RevocationCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.Config) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}

// SetRevocationCache устанавливает кэш отозванных токенов (опционально).
func (s *Service) SetRevocationCache(c cache.RevocationCache) {
	s.rcache = c
}
