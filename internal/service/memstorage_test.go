package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/storage"
)

// memStorage — потокобезопасная реализация storage.Storage в памяти для
// сквозных сценарных тестов сервиса (регистрация -> вход -> обновление ->
// отзыв), где важно реальное взаимное влияние операций, а не перечень
// вызовов хранилища.
type memStorage struct {
	mu     sync.Mutex
	users  map[uuid.UUID]models.Account
	byName map[string]uuid.UUID
	tokens map[uuid.UUID]models.RefreshTokenRecord
	events []models.SecurityEvent
}

func newMemStorage() *memStorage {
	return &memStorage{
		users:  make(map[uuid.UUID]models.Account),
		byName: make(map[string]uuid.UUID),
		tokens: make(map[uuid.UUID]models.RefreshTokenRecord),
	}
}

func (m *memStorage) SaveUser(_ context.Context, user *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byName[user.Username]; ok {
		return storage.ErrAlreadyExists
	}

	m.users[user.ID] = *user
	m.byName[user.Username] = user.ID

	return nil
}

func (m *memStorage) UserByUsername(_ context.Context, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byName[username]
	if !ok {
		return nil, storage.ErrNotFound
	}

	user := m.users[id]
	return &user, nil
}

func (m *memStorage) UserByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return &user, nil
}

func (m *memStorage) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return storage.ErrNotFound
	}

	user.PasswordHash = passwordHash
	user.UpdatedAt = time.Now().UTC()
	m.users[id] = user

	return nil
}

func (m *memStorage) SaveRefreshToken(_ context.Context, token *models.RefreshTokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[token.ID] = *token
	return nil
}

func (m *memStorage) RefreshTokensByUser(_ context.Context, userID uuid.UUID) ([]models.RefreshTokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.RefreshTokenRecord
	for _, rec := range m.tokens {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}

	return out, nil
}

func (m *memStorage) DeleteRefreshToken(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[id]; !ok {
		return storage.ErrNotFound
	}

	delete(m.tokens, id)
	return nil
}

func (m *memStorage) DeleteAllByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, rec := range m.tokens {
		if rec.UserID == userID {
			delete(m.tokens, id)
			n++
		}
	}

	return n, nil
}

func (m *memStorage) DeleteExpiredTokens(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.tokens {
		if rec.ExpiresAt.Before(now) {
			delete(m.tokens, id)
		}
	}

	return nil
}

func (m *memStorage) AppendSecurityEvent(_ context.Context, event *models.SecurityEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.events = append(m.events, *event)
	return nil
}

func (m *memStorage) Close(_ context.Context) error { return nil }

// tokenCount возвращает текущее число записей реестра пользователя.
func (m *memStorage) tokenCount(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, rec := range m.tokens {
		if rec.UserID == userID {
			n++
		}
	}

	return n
}

// eventsByAction возвращает события пользователя с заданным действием.
func (m *memStorage) eventsByAction(userID uuid.UUID, action string) []models.SecurityEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.SecurityEvent
	for _, ev := range m.events {
		if ev.UserID == userID && ev.Action == action {
			out = append(out, ev)
		}
	}

	return out
}

// expireAll принудительно протухает все записи пользователя.
func (m *memStorage) expireAll(userID uuid.UUID, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, rec := range m.tokens {
		if rec.UserID == userID {
			rec.ExpiresAt = at
			m.tokens[id] = rec
		}
	}
}
