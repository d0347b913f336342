package models

import "time"

// Допустимые значения статуса/приоритета задачи.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task — доменная модель задачи (MongoDB, коллекция tasks).
// DueDate опционален: нулевое время означает «срок не задан».
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     time.Time `json:"dueDate,omitzero"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskUpdate — частичное обновление задачи: nil-поле не трогает документ.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
}

// TaskFilter — фильтр поиска задач.
// Title — подстрока без учёта регистра; Status/Priority — точное совпадение;
// DueFrom — нижняя граница срока (нулевое время = фильтр выключен).
type TaskFilter struct {
	Title    string
	Status   string
	Priority string
	DueFrom  time.Time
}

// TaskPage — страница постраничной выдачи задач.
// TotalPages = ceil(Total/Limit); страница за пределами выдачи — пустой Items.
type TaskPage struct {
	Items      []Task
	Page       int64
	Limit      int64
	Total      int64
	TotalPages int64
}
