package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mindtutor/auth-service/internal/models"
)

// AuthService — контракт бизнес-логики, который нужен HTTP-слою.
// Реализуется service.Service.
type AuthService interface {
	RegisterUser(ctx context.Context, username, password string) (models.AccountInfo, error)
	LoginUser(ctx context.Context, username, password string, fp models.Fingerprint) (*models.TokenPair, models.AccountInfo, error)
	Refresh(ctx context.Context, rawRefreshToken string, fp models.Fingerprint) (string, time.Time, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Handlers агрегирует зависимости HTTP-хендлеров.
type Handlers struct {
	svc AuthService
}

func New(svc AuthService) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
