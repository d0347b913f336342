// storage задаёт контракты доступа к данным task-сервиса.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/pribylovaa/go-task-manager/internal/models"
)

var (
	// ErrNotFound — сущность отсутствует в хранилище.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email/username).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// CreateUser создаёт пользователя и возвращает его с заполненным ID.
	// Конфликт уникальности email/username — ErrAlreadyExists.
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	// UserByEmail находит пользователя по email.
	// Если запись не найдена — ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит пользователя по ID.
	// Некорректный формат id трактуется как «нет такой записи».
	UserByID(ctx context.Context, id string) (*models.User, error)
	// UpdateUserPassword заменяет хэш пароля и обновляет updated_at.
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// TaskStorage выполняет операции над задачами.
type TaskStorage interface {
	// CreateTask создаёт задачу и возвращает её с заполненным ID.
	CreateTask(ctx context.Context, task models.Task) (*models.Task, error)
	// TaskByID возвращает задачу по идентификатору.
	TaskByID(ctx context.Context, id string) (*models.Task, error)
	// TaskByTitle возвращает задачу по точному названию без учёта регистра.
	TaskByTitle(ctx context.Context, title string) (*models.Task, error)
	// UpdateTask применяет частичное обновление; nil-поля не трогаются.
	// Если запись не найдена — ErrNotFound.
	UpdateTask(ctx context.Context, id string, upd models.TaskUpdate) (*models.Task, error)
	// DeleteTask удаляет задачу. Если запись не найдена — ErrNotFound.
	DeleteTask(ctx context.Context, id string) error
	// ListTasks возвращает страницу задач по фильтру и общее число совпадений.
	ListTasks(ctx context.Context, filter models.TaskFilter, skip, limit int64) ([]models.Task, int64, error)
}

// BlacklistStorage выполняет операции над реестром отозванных токенов.
type BlacklistStorage interface {
	// RevokeToken помечает токен отозванным. Идемпотентна:
	// повторный отзыв того же токена не меняет наблюдаемого результата.
	// expiresAt — собственный срок жизни токена; по нему реестр чистится TTL-индексом.
	RevokeToken(ctx context.Context, token string, expiresAt time.Time) error
	// IsTokenRevoked проверяет наличие токена в реестре.
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	TaskStorage
	BlacklistStorage
	Close(ctx context.Context) error
}
