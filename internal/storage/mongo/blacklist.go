package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// blacklistDoc — запись реестра отозванных токенов.
// expires_at — собственный срок жизни токена; TTL-индекс удаляет запись после
// него: просроченный токен всё равно не пройдёт проверку подписи/срока.
type blacklistDoc struct {
	Token     string    `bson:"token"`
	RevokedAt time.Time `bson:"revoked_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// RevokeToken помечает токен отозванным. Идемпотентна: upsert по точной строке
// токена, повторный отзыв не меняет ни документа, ни наблюдаемого результата.
func (m *Mongo) RevokeToken(ctx context.Context, token string, expiresAt time.Time) error {
	const op = "storage/mongo/RevokeToken"

	now := toMS(time.Now())

	_, err := m.blacklist.UpdateOne(ctx,
		bson.D{{Key: "token", Value: token}},
		bson.D{{Key: "$setOnInsert", Value: blacklistDoc{
			Token:     token,
			RevokedAt: now,
			ExpiresAt: toMS(expiresAt),
		}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// Гонка двух одновременных logout упирается в уникальный индекс —
		// результат тот же, токен отозван.
		if mongodriver.IsDuplicateKeyError(err) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// IsTokenRevoked проверяет наличие токена в реестре.
func (m *Mongo) IsTokenRevoked(ctx context.Context, token string) (bool, error) {
	const op = "storage/mongo/IsTokenRevoked"

	err := m.blacklist.FindOne(ctx, bson.D{{Key: "token", Value: token}},
		options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})).Err()
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return true, nil
}
