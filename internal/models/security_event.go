package models

import (
	"time"

	"github.com/google/uuid"
)

// Виды событий безопасности.
const (
	ActionSuspiciousActivity = "suspicious_activity"
	ActionAllTokensRevoked   = "all_tokens_revoked"
	ActionPasswordChanged    = "password_changed"
)

// SecurityEventMeta — структурированные детали события.
// Для suspicious_activity заполняются оба отпечатка; для all_tokens_revoked —
// число отозванных записей.
type SecurityEventMeta struct {
	OriginalFingerprint *Fingerprint `bson:"original_fingerprint,omitempty"`
	SuspectFingerprint  *Fingerprint `bson:"suspect_fingerprint,omitempty"`
	RevokedCount        int64        `bson:"revoked_count,omitempty"`
}

// SecurityEvent — неизменяемая запись аудита. Только добавляется,
// никогда не мутируется и не удаляется этим сервисом.
type SecurityEvent struct {
	ID        uuid.UUID         `bson:"_id"`
	UserID    uuid.UUID         `bson:"user_id"`
	Action    string            `bson:"action"`
	Details   string            `bson:"details"`
	Meta      SecurityEventMeta `bson:"meta"`
	CreatedAt time.Time         `bson:"created_at"`
}
