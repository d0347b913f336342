package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/pribylovaa/go-task-manager/internal/errors"
	"github.com/pribylovaa/go-task-manager/internal/models"
	"github.com/pribylovaa/go-task-manager/internal/service"
)

type createTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
}

// listTasksResponse — конверт постраничной выдачи GET /tasks.
type listTasksResponse struct {
	Page       int64         `json:"page"`
	Limit      int64         `json:"limit"`
	TotalTasks int64         `json:"totalTasks"`
	TotalPages int64         `json:"totalPages"`
	Tasks      []models.Task `json:"tasks"`
}

// searchTasksResponse — конверт выдачи GET /tasks/search (исторические имена полей).
type searchTasksResponse struct {
	Tasks        []models.Task `json:"tasks"`
	TotalItems   int64         `json:"totalItems"`
	TotalPages   int64         `json:"totalPages"`
	CurrentPage  int64         `json:"currentPage"`
	ItemsPerPage int64         `json:"itemsPerPage"`
}

// CreateTask создаёт новую задачу.
func (h *Handlers) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in createTaskRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	input := service.CreateTaskInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
	}
	if in.DueDate != nil {
		input.DueDate = *in.DueDate
	}

	task, err := h.Svc.CreateTask(r.Context(), input)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, task)
}

// ListTasks возвращает страницу задач: page/limit из query-параметров.
func (h *Handlers) ListTasks(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page")
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	limit, ok := queryInt(r, "limit")
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	result, err := h.Svc.ListTasks(r.Context(), service.ListTasksInput{Page: page, Limit: limit})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, listTasksResponse{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalTasks: result.Total,
		TotalPages: result.TotalPages,
		Tasks:      tasksOrEmpty(result.Items),
	})
}

// SearchTasks возвращает страницу задач по фильтру из query-параметров.
func (h *Handlers) SearchTasks(w http.ResponseWriter, r *http.Request) {
	page, ok := queryInt(r, "page")
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	limit, ok := queryInt(r, "limit")
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	in := service.SearchTasksInput{
		Title:    r.URL.Query().Get("title"),
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Page:     page,
		Limit:    limit,
	}

	// "null" исторически означает отсутствие фильтра по сроку.
	if v := r.URL.Query().Get("dueDate"); v != "" && v != "null" {
		due, err := parseDueDate(v)
		if err != nil {
			apierrors.WriteError(w, r, service.ErrInvalidArgument)
			return
		}

		in.DueFrom = due
	}

	result, err := h.Svc.SearchTasks(r.Context(), in)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchTasksResponse{
		Tasks:        tasksOrEmpty(result.Items),
		TotalItems:   result.Total,
		TotalPages:   result.TotalPages,
		CurrentPage:  result.Page,
		ItemsPerPage: result.Limit,
	})
}

// GetTask возвращает задачу по ключу маршрута: сначала строгая попытка по id,
// при неудаче — запасной поиск по точному названию без учёта регистра.
func (h *Handlers) GetTask(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "id")
	if key == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	task, err := h.Svc.TaskByIDOrTitle(r.Context(), key)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTask применяет частичное обновление задачи.
func (h *Handlers) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	var in updateTaskRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	task, err := h.Svc.UpdateTask(r.Context(), id, models.TaskUpdate{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		DueDate:     in.DueDate,
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// DeleteTask удаляет задачу по идентификатору.
func (h *Handlers) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.Svc.DeleteTask(r.Context(), id); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Task deleted successfully"})
}

// queryInt читает неотрицательный целочисленный query-параметр.
// Отсутствующий параметр — ноль (сервис подставит значение по умолчанию).
func queryInt(r *http.Request, name string) (int64, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, true
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

// parseDueDate принимает RFC3339 либо короткую дату YYYY-MM-DD.
func parseDueDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}

	return time.Parse("2006-01-02", v)
}

// tasksOrEmpty гарантирует [] вместо null в JSON-ответе.
func tasksOrEmpty(items []models.Task) []models.Task {
	if items == nil {
		return []models.Task{}
	}
	return items
}
