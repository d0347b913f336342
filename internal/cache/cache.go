package cache

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationCache — минимальный контракт кэша отозванных токенов.
// Кэш хранит только положительные факты отзыва: промах всегда означает
// «спроси у БД», поэтому устаревшее «не отозван» здесь невозможно.
type RevocationCache interface {
	// IsRevoked возвращает true, если факт отзыва есть в кэше.
	IsRevoked(ctx context.Context, token string) (bool, error)
	// MarkRevoked сохраняет факт отзыва с TTL (обычно — остаток жизни токена).
	MarkRevoked(ctx context.Context, token string, ttl time.Duration) error
	// Close закрывает клиент Redis.
	Close() error
}

type redisCache struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisCache создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется "auth:bl:".
func NewRedisCache(redisURL, prefix string) (RevocationCache, error) {
	if prefix == "" {
		prefix = "auth:bl:"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &redisCache{rdb: rdb, prefix: prefix}, nil
}

// key строит ключ по sha256-хэшу токена: сырой токен в Redis не попадает.
func (c *redisCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.prefix + base64.RawURLEncoding.EncodeToString(sum[:])
}

func (c *redisCache) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := c.rdb.Exists(ctx, c.key(token)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (c *redisCache) MarkRevoked(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// Токен уже просрочен — реестр ему не нужен.
		return nil
	}

	return c.rdb.Set(ctx, c.key(token), "1", ttl).Err()
}

func (c *redisCache) Close() error { return c.rdb.Close() }
