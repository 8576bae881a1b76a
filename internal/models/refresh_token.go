package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshTokenRecord — запись реестра refresh-токенов: одна на каждый
// выпущенный токен (одна на активное устройство пользователя).
//
// TokenHash — bcrypt-хэш от SHA-256-дайджеста строки токена; «сырой» токен
// не сохраняется никогда. Из-за соли прямой поиск по хэшу невозможен —
// валидация идёт линейным перебором записей пользователя
// (см. service.Refresh).
type RefreshTokenRecord struct {
	ID          uuid.UUID   `bson:"_id"`
	UserID      uuid.UUID   `bson:"user_id"`
	TokenHash   string      `bson:"token_hash"`
	Fingerprint Fingerprint `bson:"fingerprint"`
	CreatedAt   time.Time   `bson:"created_at"`
	ExpiresAt   time.Time   `bson:"expires_at"`
}
