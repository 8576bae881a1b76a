package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/storage"
)

// SaveRefreshToken сохраняет новую запись реестра refresh-токенов.
// Несколько одновременных записей на одного пользователя — штатная ситуация
// (по одной на активное устройство).
func (m *Mongo) SaveRefreshToken(ctx context.Context, token *models.RefreshTokenRecord) error {
	const op = "storage/mongo/SaveRefreshToken"

	token.CreatedAt = toMS(token.CreatedAt)
	token.ExpiresAt = toMS(token.ExpiresAt)

	if _, err := m.refreshTokens.InsertOne(ctx, token); err != nil {
		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// RefreshTokensByUser возвращает все записи реестра пользователя.
// Пустой срез — не ошибка: у пользователя просто нет активных сессий.
func (m *Mongo) RefreshTokensByUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshTokenRecord, error) {
	const op = "storage/mongo/RefreshTokensByUser"

	cur, err := m.refreshTokens.Find(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.RefreshTokenRecord
	for cur.Next(ctx) {
		var rec models.RefreshTokenRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		rec.CreatedAt = rec.CreatedAt.UTC()
		rec.ExpiresAt = rec.ExpiresAt.UTC()
		items = append(items, rec)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// DeleteRefreshToken удаляет одну запись реестра по её ID.
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) DeleteRefreshToken(ctx context.Context, id uuid.UUID) error {
	const op = "storage/mongo/DeleteRefreshToken"

	res, err := m.refreshTokens.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.DeletedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// DeleteAllByUser удаляет все записи реестра пользователя одним
// фильтрованным delete и возвращает число удалённых.
// Нулевое число — успех (операция идемпотентна).
func (m *Mongo) DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "storage/mongo/DeleteAllByUser"

	res, err := m.refreshTokens.DeleteMany(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return res.DeletedCount, nil
}

// DeleteExpiredTokens удаляет все просроченные записи реестра.
// Дублирует TTL-индекс Mongo: тот срабатывает с задержкой до минуты,
// а janitor даёт детерминированную точку очистки.
func (m *Mongo) DeleteExpiredTokens(ctx context.Context, now time.Time) error {
	const op = "storage/mongo/DeleteExpiredTokens"

	_, err := m.refreshTokens.DeleteMany(ctx, bson.D{
		{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: toMS(now)}}},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
