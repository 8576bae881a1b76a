package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mindtutor/auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над учётными записями.
type UserStorage interface {
	// SaveUser создаёт нового пользователя.
	SaveUser(ctx context.Context, user *models.Account) error
	// UserByUsername находит пользователя по имени.
	UserByUsername(ctx context.Context, username string) (*models.Account, error)
	// UserByID находит пользователя по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// UpdatePassword заменяет хэш пароля пользователя.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// RefreshTokenStorage выполняет операции над реестром refresh-токенов.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новую запись реестра.
	SaveRefreshToken(ctx context.Context, token *models.RefreshTokenRecord) error
	// RefreshTokensByUser возвращает все записи пользователя.
	// Поиск по хэшу невозможен (хэш солёный) — сверку выполняет сервис.
	RefreshTokensByUser(ctx context.Context, userID uuid.UUID) ([]models.RefreshTokenRecord, error)
	// DeleteRefreshToken удаляет одну запись по её ID.
	DeleteRefreshToken(ctx context.Context, id uuid.UUID) error
	// DeleteAllByUser удаляет все записи пользователя и возвращает их число.
	// Нулевое число удалённых — успех, не ошибка.
	DeleteAllByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// DeleteExpiredTokens удаляет все просроченные записи.
	DeleteExpiredTokens(ctx context.Context, now time.Time) error
}

// SecurityEventStorage — append-only журнал событий безопасности.
type SecurityEventStorage interface {
	// AppendSecurityEvent добавляет событие в журнал.
	AppendSecurityEvent(ctx context.Context, event *models.SecurityEvent) error
}

// Storage задаёт контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	SecurityEventStorage
	Close(ctx context.Context) error
}
