package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pribylovaa/go-task-manager/internal/models"
	"github.com/pribylovaa/go-task-manager/internal/storage"
)

// Входные структуры сервисного слоя.

// CreateTaskInput — создание задачи.
// Title обязателен; пустые Status/Priority получают значения по умолчанию.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      string
	Priority    string
	DueDate     time.Time
}

// ListTasksInput — параметры постраничной выдачи.
// Page <= 0 трактуется как первая страница; Limit <= 0 — значение из конфигурации.
type ListTasksInput struct {
	Page  int64
	Limit int64
}

// SearchTasksInput — параметры поиска с той же пагинацией.
type SearchTasksInput struct {
	Title    string
	Status   string
	Priority string
	DueFrom  time.Time
	Page     int64
	Limit    int64
}

// CreateTask — бизнес-операция создания задачи.
//
// Валидация:
//   - Title нормализуется (TrimSpace) и не должен быть пустым;
//   - Status/Priority, если заданы, должны быть из известного набора.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	const op = "service/tasks/CreateTask"

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	status, err := normalizeStatus(in.Status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	priority, err := normalizePriority(in.Priority)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	task, err := s.storage.CreateTask(ctx, models.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// TaskByIDOrTitle возвращает задачу по ключу маршрута.
// Сначала строгая попытка по идентификатору; только при неудаче — запасной
// поиск по точному названию без учёта регистра.
func (s *Service) TaskByIDOrTitle(ctx context.Context, key string) (*models.Task, error) {
	const op = "service/tasks/TaskByIDOrTitle"

	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	task, err := s.storage.TaskByID(ctx, key)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	task, err = s.storage.TaskByTitle(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTaskNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// UpdateTask применяет частичное обновление задачи.
func (s *Service) UpdateTask(ctx context.Context, id string, upd models.TaskUpdate) (*models.Task, error) {
	const op = "service/tasks/UpdateTask"

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidArgument)
		}
		upd.Title = &title
	}

	if upd.Status != nil {
		status, err := normalizeStatus(*upd.Status)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		upd.Status = &status
	}

	if upd.Priority != nil {
		priority, err := normalizePriority(*upd.Priority)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		upd.Priority = &priority
	}

	task, err := s.storage.UpdateTask(ctx, id, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrTaskNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return task, nil
}

// DeleteTask удаляет задачу по идентификатору.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	const op = "service/tasks/DeleteTask"

	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidArgument)
	}

	if err := s.storage.DeleteTask(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrTaskNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListTasks возвращает страницу всех задач.
// Страница за пределами выдачи — валидный запрос: пустой список, не ошибка.
func (s *Service) ListTasks(ctx context.Context, in ListTasksInput) (*models.TaskPage, error) {
	const op = "service/tasks/ListTasks"

	page, err := s.listPage(ctx, models.TaskFilter{}, in.Page, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// SearchTasks возвращает страницу задач по фильтру.
func (s *Service) SearchTasks(ctx context.Context, in SearchTasksInput) (*models.TaskPage, error) {
	const op = "service/tasks/SearchTasks"

	if in.Status != "" {
		if _, err := normalizeStatus(in.Status); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if in.Priority != "" {
		if _, err := normalizePriority(in.Priority); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	filter := models.TaskFilter{
		Title:    strings.TrimSpace(in.Title),
		Status:   in.Status,
		Priority: in.Priority,
		DueFrom:  in.DueFrom,
	}

	page, err := s.listPage(ctx, filter, in.Page, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return page, nil
}

// listPage — общая пагинация: нормализация page/limit, skip=(page-1)*limit,
// totalPages = ceil(total/limit).
func (s *Service) listPage(ctx context.Context, filter models.TaskFilter, page, limit int64) (*models.TaskPage, error) {
	if page <= 0 {
		page = 1
	}

	if limit <= 0 {
		limit = s.cfg.Limits.Default
	}

	if limit > s.cfg.Limits.Max {
		limit = s.cfg.Limits.Max
	}

	skip := (page - 1) * limit

	items, total, err := s.storage.ListTasks(ctx, filter, skip, limit)
	if err != nil {
		return nil, err
	}

	return &models.TaskPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// normalizeStatus применяет значение по умолчанию и проверяет набор значений.
func normalizeStatus(status string) (string, error) {
	status = strings.TrimSpace(strings.ToLower(status))
	if status == "" {
		return models.StatusPending, nil
	}

	switch status {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
		return status, nil
	default:
		return "", ErrInvalidArgument
	}
}

// normalizePriority применяет значение по умолчанию и проверяет набор значений.
func normalizePriority(priority string) (string, error) {
	priority = strings.TrimSpace(strings.ToLower(priority))
	if priority == "" {
		return models.PriorityLow, nil
	}

	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return priority, nil
	default:
		return "", ErrInvalidArgument
	}
}
