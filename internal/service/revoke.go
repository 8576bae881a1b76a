package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/pkg/log"
)

// Logout отзывает все сессии пользователя. Идемпотентен: отсутствие
// активных сессий — тоже успех.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID) error {
	const op = "service.revoke.Logout"

	revoked, err := s.revokeAll(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logout",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.Int64("revoked", revoked),
	)

	return nil
}

// RevokeAllSessions отзывает все сессии пользователя, пишет событие
// all_tokens_revoked с числом отозванных записей и возвращает это число.
func (s *Service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "service.revoke.RevokeAllSessions"

	revoked, err := s.revokeAll(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.appendEvent(ctx, &models.SecurityEvent{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    models.ActionAllTokensRevoked,
		Details:   "all sessions revoked by user request",
		Meta:      models.SecurityEventMeta{RevokedCount: revoked},
		CreatedAt: time.Now().UTC(),
	})

	log.From(ctx).Info("all_sessions_revoked",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.Int64("revoked", revoked),
	)

	return revoked, nil
}

// revokeAll — общий примитив отзыва: безусловно удаляет все записи реестра
// пользователя одним фильтрованным delete.
func (s *Service) revokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "service.revoke.revokeAll"

	revoked, err := s.storage.DeleteAllByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return revoked, nil
}
