package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли аккаунта. Хранятся строкой в документе пользователя.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account — учётная запись пользователя.
//
// PasswordHash — bcrypt-хэш пароля; наружу (в транспорт) никогда не отдаётся,
// для ответов используется проекция AccountInfo.
type Account struct {
	ID           uuid.UUID `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	Active       bool      `bson:"active"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// AccountInfo — безопасная проекция аккаунта для транспорта
// (без хэша пароля).
type AccountInfo struct {
	ID       uuid.UUID
	Username string
	Role     string
	Active   bool
}

// Info возвращает безопасную проекцию аккаунта.
func (a *Account) Info() AccountInfo {
	return AccountInfo{
		ID:       a.ID,
		Username: a.Username,
		Role:     a.Role,
		Active:   a.Active,
	}
}
