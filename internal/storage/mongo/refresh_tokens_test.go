package mongo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mindtutor/auth-service/internal/storage"
)

func TestSaveRefreshToken_AndListByUser(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	userID := uuid.New()
	rec1 := newTokenRecord(userID, time.Hour)
	rec2 := newTokenRecord(userID, time.Hour)
	other := newTokenRecord(uuid.New(), time.Hour)

	require.NoError(t, m.SaveRefreshToken(ctx, rec1))
	require.NoError(t, m.SaveRefreshToken(ctx, rec2))
	require.NoError(t, m.SaveRefreshToken(ctx, other))

	items, err := m.RefreshTokensByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	ids := []uuid.UUID{items[0].ID, items[1].ID}
	require.ElementsMatch(t, []uuid.UUID{rec1.ID, rec2.ID}, ids)

	// Отпечаток и хэш переживают round-trip.
	for _, it := range items {
		require.Equal(t, "test-agent/1.0", it.Fingerprint.UserAgent)
		require.Equal(t, "10.0.0.1", it.Fingerprint.IP)
		require.NotEmpty(t, it.TokenHash)
	}
}

func TestRefreshTokensByUser_Empty(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	items, err := m.RefreshTokensByUser(ctx, uuid.New())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestDeleteRefreshToken_OK(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	rec := newTokenRecord(uuid.New(), time.Hour)
	require.NoError(t, m.SaveRefreshToken(ctx, rec))

	require.NoError(t, m.DeleteRefreshToken(ctx, rec.ID))

	items, err := m.RefreshTokensByUser(ctx, rec.UserID)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestDeleteRefreshToken_NotFound(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	err := m.DeleteRefreshToken(ctx, uuid.New())
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteAllByUser_CountAndIdempotency(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	userID := uuid.New()
	require.NoError(t, m.SaveRefreshToken(ctx, newTokenRecord(userID, time.Hour)))
	require.NoError(t, m.SaveRefreshToken(ctx, newTokenRecord(userID, time.Hour)))
	require.NoError(t, m.SaveRefreshToken(ctx, newTokenRecord(userID, time.Hour)))

	// Чужая запись не задевается.
	other := newTokenRecord(uuid.New(), time.Hour)
	require.NoError(t, m.SaveRefreshToken(ctx, other))

	n, err := m.DeleteAllByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	// Повторный вызов — ноль удалённых, без ошибки.
	n, err = m.DeleteAllByUser(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	items, err := m.RefreshTokensByUser(ctx, other.UserID)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestDeleteExpiredTokens(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	userID := uuid.New()
	expired := newTokenRecord(userID, -time.Minute)
	alive := newTokenRecord(userID, time.Hour)

	require.NoError(t, m.SaveRefreshToken(ctx, expired))
	require.NoError(t, m.SaveRefreshToken(ctx, alive))

	require.NoError(t, m.DeleteExpiredTokens(ctx, time.Now().UTC()))

	items, err := m.RefreshTokensByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, alive.ID, items[0].ID)
}
