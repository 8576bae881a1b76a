package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/storage"
)

// toMS приводит время к UTC с точностью до миллисекунд:
// MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// SaveUser создаёт нового пользователя.
// Конфликт по username транслируется в storage.ErrAlreadyExists.
func (m *Mongo) SaveUser(ctx context.Context, user *models.Account) error {
	const op = "storage/mongo/SaveUser"

	user.CreatedAt = toMS(user.CreatedAt)
	user.UpdatedAt = toMS(user.UpdatedAt)

	if _, err := m.users.InsertOne(ctx, user); err != nil {
		if mongodriver.IsDuplicateKeyError(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: insert: %w", op, err)
	}

	return nil
}

// UserByUsername находит пользователя по имени.
func (m *Mongo) UserByUsername(ctx context.Context, username string) (*models.Account, error) {
	const op = "storage/mongo/UserByUsername"

	var out models.Account
	err := m.users.FindOne(ctx, bson.D{{Key: "username", Value: username}}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()

	return &out, nil
}

// UserByID находит пользователя по ID.
func (m *Mongo) UserByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	const op = "storage/mongo/UserByID"

	var out models.Account
	err := m.users.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&out)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out.CreatedAt = out.CreatedAt.UTC()
	out.UpdatedAt = out.UpdatedAt.UTC()

	return &out, nil
}

// UpdatePassword заменяет хэш пароля пользователя.
// При отсутствии записи — storage.ErrNotFound.
func (m *Mongo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "storage/mongo/UpdatePassword"

	res, err := m.users.UpdateByID(ctx, id, bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "password_hash", Value: passwordHash},
			{Key: "updated_at", Value: toMS(time.Now())},
		}},
	})

	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
