package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pribylovaa/go-task-manager/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection     = "users"
	tasksCollection     = "tasks"
	blacklistCollection = "blacklist"
	defaultDBName       = "tasks"
)

// Mongo - тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	cfg       *config.Config
	client    *mongodriver.Client
	db        *mongodriver.Database
	users     *mongodriver.Collection
	tasks     *mongodriver.Collection
	blacklist *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение, подготавливает коллекции и индексы.
func New(ctx context.Context, cfg *config.Config) (*Mongo, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mongo: nil config")
	}

	if cfg.DB.URL == "" {
		return nil, fmt.Errorf("mongo: empty cfg.DB.URL")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(cfg.DB.URL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(cfg.DB.URL)
	db := cli.Database(dbName)

	m := &Mongo{
		cfg:       cfg,
		client:    cli,
		db:        db,
		users:     db.Collection(usersCollection),
		tasks:     db.Collection(tasksCollection),
		blacklist: db.Collection(blacklistCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы, необходимые task-сервису:
//   - users: уникальные email и username (ограничения уникальности живут в БД,
//     а не в коде приложения);
//   - blacklist: уникальный token + TTL по expires_at (expireAfterSeconds=0 ->
//     используется временная метка, сохранённая в документе). Запись живёт ровно
//     до собственного истечения токена: дольше она не нужна, подпись уже не пройдёт;
//   - tasks: статус/приоритет/срок для поиска, created_at для стабильной выдачи.
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	userModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("uniq_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName("uniq_username").SetUnique(true),
		},
	}

	if _, err := m.users.Indexes().CreateMany(ctx, userModels); err != nil {
		return fmt.Errorf("mongo ensure user indexes: %w", err)
	}

	blacklistModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("uniq_token").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
		},
	}

	if _, err := m.blacklist.Indexes().CreateMany(ctx, blacklistModels); err != nil {
		return fmt.Errorf("mongo ensure blacklist indexes: %w", err)
	}

	taskModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}},
			Options: options.Index().SetName("status_priority"),
		},
		{
			Keys:    bson.D{{Key: "due_date", Value: 1}},
			Options: options.Index().SetName("due_date_asc"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("created_asc"),
		},
	}

	if _, err := m.tasks.Indexes().CreateMany(ctx, taskModels); err != nil {
		return fmt.Errorf("mongo ensure task indexes: %w", err)
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
// Если оно отсутствует или не поддаётся расшифровке, возвращает разумное значение по умолчанию.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	return defaultDBName
}
