package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pribylovaa/go-task-manager/internal/models"
	"github.com/pribylovaa/go-task-manager/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskDoc — представление задачи в коллекции tasks.
// DueDate хранится указателем: отсутствие срока — отсутствие поля в документе.
type taskDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description,omitempty"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"due_date,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

func (d taskDoc) toModel() *models.Task {
	t := &models.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      d.Status,
		Priority:    d.Priority,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}

	if d.DueDate != nil {
		t.DueDate = d.DueDate.UTC()
	}

	return t
}

// CreateTask создаёт задачу и возвращает её с заполненным ID.
func (m *Mongo) CreateTask(ctx context.Context, task models.Task) (*models.Task, error) {
	const op = "storage/mongo/CreateTask"

	now := toMS(time.Now())

	doc := taskDoc{
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if !task.DueDate.IsZero() {
		due := toMS(task.DueDate)
		doc.DueDate = &due
	}

	res, err := m.tasks.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("%s: inserted id type", op)
	}

	doc.ID = oid
	return doc.toModel(), nil
}

// TaskByID возвращает задачу по идентификатору.
// Некорректный формат id трактуется как «нет такой записи».
func (m *Mongo) TaskByID(ctx context.Context, id string) (*models.Task, error) {
	const op = "storage/mongo/TaskByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc taskDoc
	if err := m.tasks.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// TaskByTitle возвращает задачу по точному названию без учёта регистра.
// Берётся самая ранняя из совпавших — выбор детерминирован.
func (m *Mongo) TaskByTitle(ctx context.Context, title string) (*models.Task, error) {
	const op = "storage/mongo/TaskByTitle"

	pattern := "^" + regexp.QuoteMeta(strings.TrimSpace(title)) + "$"
	filter := bson.D{{Key: "title", Value: primitive.Regex{Pattern: pattern, Options: "i"}}}

	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	var doc taskDoc
	if err := m.tasks.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// UpdateTask применяет частичное обновление: nil-поля не трогают документ.
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) UpdateTask(ctx context.Context, id string, upd models.TaskUpdate) (*models.Task, error) {
	const op = "storage/mongo/UpdateTask"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	set := bson.D{{Key: "updated_at", Value: toMS(time.Now())}}

	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *upd.Description})
	}
	if upd.Status != nil {
		set = append(set, bson.E{Key: "status", Value: *upd.Status})
	}
	if upd.Priority != nil {
		set = append(set, bson.E{Key: "priority", Value: *upd.Priority})
	}
	if upd.DueDate != nil {
		set = append(set, bson.E{Key: "due_date", Value: toMS(*upd.DueDate)})
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc taskDoc
	err = m.tasks.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return doc.toModel(), nil
}

// DeleteTask удаляет задачу. При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) DeleteTask(ctx context.Context, id string) error {
	const op = "storage/mongo/DeleteTask"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	res, err := m.tasks.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// ListTasks возвращает страницу задач по фильтру и общее число совпадений.
// Сортировка: created_at ASC, _id ASC — стабильный порядок вставки.
func (m *Mongo) ListTasks(ctx context.Context, filter models.TaskFilter, skip, limit int64) ([]models.Task, int64, error) {
	const op = "storage/mongo/ListTasks"

	query := buildTaskFilter(filter)

	total, err := m.tasks.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cur, err := m.tasks.Find(ctx, query, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.Task
	for cur.Next(ctx) {
		var doc taskDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, *doc.toModel())
	}

	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, total, nil
}

// buildTaskFilter собирает bson-фильтр из доменного фильтра поиска:
//   - Title — подстрока без учёта регистра;
//   - Status/Priority — точное совпадение;
//   - DueFrom — due_date >= заданной даты.
func buildTaskFilter(filter models.TaskFilter) bson.D {
	query := bson.D{}

	if title := strings.TrimSpace(filter.Title); title != "" {
		query = append(query, bson.E{Key: "title", Value: primitive.Regex{
			Pattern: regexp.QuoteMeta(title),
			Options: "i",
		}})
	}

	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: filter.Status})
	}

	if filter.Priority != "" {
		query = append(query, bson.E{Key: "priority", Value: filter.Priority})
	}

	if !filter.DueFrom.IsZero() {
		query = append(query, bson.E{Key: "due_date", Value: bson.D{
			{Key: "$gte", Value: toMS(filter.DueFrom)},
		}})
	}

	return query
}
