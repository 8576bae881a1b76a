package mongo

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mindtutor/auth-service/internal/models"
)

func TestAppendSecurityEvent_RoundTrip(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	userID := uuid.New()
	original := &models.Fingerprint{UserAgent: "chrome/119", IP: "10.0.0.1"}
	suspect := &models.Fingerprint{UserAgent: "curl/8.0", IP: "203.0.113.7"}

	event := &models.SecurityEvent{
		ID:      uuid.New(),
		UserID:  userID,
		Action:  models.ActionSuspiciousActivity,
		Details: "refresh attempt with mismatched device fingerprint, all sessions revoked",
		Meta: models.SecurityEventMeta{
			OriginalFingerprint: original,
			SuspectFingerprint:  suspect,
			RevokedCount:        2,
		},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, m.AppendSecurityEvent(ctx, event))

	var got models.SecurityEvent
	err := m.securityEvents.FindOne(ctx, bson.D{{Key: "_id", Value: event.ID}}).Decode(&got)
	require.NoError(t, err)

	require.Equal(t, userID, got.UserID)
	require.Equal(t, models.ActionSuspiciousActivity, got.Action)
	require.NotNil(t, got.Meta.OriginalFingerprint)
	require.Equal(t, *original, *got.Meta.OriginalFingerprint)
	require.NotNil(t, got.Meta.SuspectFingerprint)
	require.Equal(t, *suspect, *got.Meta.SuspectFingerprint)
	require.Equal(t, int64(2), got.Meta.RevokedCount)
	require.Equal(t, toMS(event.CreatedAt), got.CreatedAt.UTC())
}

func TestAppendSecurityEvent_MinimalMeta(t *testing.T) {
	m := newTestMongo(t)
	ctx := testCtx(t)

	event := &models.SecurityEvent{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Action:    models.ActionAllTokensRevoked,
		Details:   "all sessions revoked by user request",
		Meta:      models.SecurityEventMeta{RevokedCount: 1},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, m.AppendSecurityEvent(ctx, event))

	var got models.SecurityEvent
	err := m.securityEvents.FindOne(ctx, bson.D{{Key: "_id", Value: event.ID}}).Decode(&got)
	require.NoError(t, err)

	// Отсутствующие отпечатки не материализуются при чтении.
	require.Nil(t, got.Meta.OriginalFingerprint)
	require.Nil(t, got.Meta.SuspectFingerprint)
}
