package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/pkg/log"
	"github.com/mindtutor/auth-service/internal/storage"
)

// Refresh обменивает валидный refresh-токен на новый access-токен.
//
// Машина состояний попытки обновления:
//
//	подпись -> запись реестра -> срок действия -> отпечаток -> access-токен
//
//  1. Проверяется подпись и exp-клейм токена; отказ терминален.
//  2. Субъект перечитывается из хранилища; отсутствующий или отключённый
//     аккаунт — терминальный отказ.
//  3. Загружаются ВСЕ записи реестра пользователя и токен сверяется с каждым
//     хэшем по очереди: хэш солёный, прямого поиска нет. Это осознанное
//     O(активных устройств), а не O(1) — одновременных сессий у пользователя
//     единицы.
//  4. Просроченная запись удаляется на месте, попытка отклоняется.
//  5. Отпечаток сверяется только когда обе стороны полные; неполные данные
//     сверку пропускают (судить о согласованности не по чему).
//  6. Расхождение UA и/или IP — аномалия: отзываются ВСЕ записи пользователя
//     (токен мог быть украден, а какая из сессий скомпрометирована —
//     неизвестно), в журнал пишется suspicious_activity с обоими отпечатками,
//     попытка отклоняется. Дальше только полный вход по паролю.
//  7. Иначе из живого состояния аккаунта выпускается новый access-токен.
//     Сама запись реестра не ротируется: refresh-токен действует до
//     собственного истечения или отзыва.
func (s *Service) Refresh(ctx context.Context, rawRefreshToken string, fp models.Fingerprint) (string, time.Time, error) {
	const op = "service.rotate.Refresh"

	lg := log.From(ctx)

	uid, err := s.validateRefreshClaims(rawRefreshToken)
	if err != nil {
		lg.Warn("refresh_signature_invalid", slog.String("op", op))
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_subject_missing",
				slog.String("op", op),
				slog.String("user_id", uid.String()),
			)
			return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Active {
		lg.Warn("refresh_subject_inactive",
			slog.String("op", op),
			slog.String("user_id", uid.String()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	records, err := s.storage.RefreshTokensByUser(ctx, uid)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	matched := matchRecord(records, rawRefreshToken)
	if matched == nil {
		lg.Warn("refresh_no_ledger_match",
			slog.String("op", op),
			slog.String("user_id", uid.String()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if time.Now().UTC().After(matched.ExpiresAt) {
		// Просроченная запись равнозначна отсутствующей; заодно подчищается.
		if derr := s.storage.DeleteRefreshToken(ctx, matched.ID); derr != nil && !errors.Is(derr, storage.ErrNotFound) {
			lg.Error("refresh_expired_cleanup_failed",
				slog.String("op", op),
				slog.String("err", derr.Error()),
			)
		}

		lg.Warn("refresh_expired",
			slog.String("op", op),
			slog.String("user_id", uid.String()),
		)
		return "", time.Time{}, fmt.Errorf("%s: %w", op, ErrTokenExpired)
	}

	if match, judged := matched.Fingerprint.Matches(fp); judged && !match {
		return "", time.Time{}, s.revokeOnAnomaly(ctx, uid, matched.Fingerprint, fp)
	}

	now := time.Now().UTC()
	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	return accessToken, now.Add(s.cfg.AccessTokenTTL), nil
}

// matchRecord линейно перебирает записи реестра до первого совпадения хэша.
func matchRecord(records []models.RefreshTokenRecord, plain string) *models.RefreshTokenRecord {
	for i := range records {
		if matchRefreshToken(records[i].TokenHash, plain) {
			return &records[i]
		}
	}

	return nil
}

// revokeOnAnomaly выполняет каскадный отзыв при расхождении отпечатков:
// удаляет все записи реестра пользователя и фиксирует suspicious_activity
// с исходным и подозрительным отпечатками. Отказ записи события не отменяет
// уже выполненный отзыв.
func (s *Service) revokeOnAnomaly(ctx context.Context, userID uuid.UUID, original, suspect models.Fingerprint) error {
	const op = "service.rotate.revokeOnAnomaly"

	revoked, err := s.storage.DeleteAllByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.appendEvent(ctx, &models.SecurityEvent{
		ID:      uuid.New(),
		UserID:  userID,
		Action:  models.ActionSuspiciousActivity,
		Details: "refresh attempt with mismatched device fingerprint, all sessions revoked",
		Meta: models.SecurityEventMeta{
			OriginalFingerprint: &original,
			SuspectFingerprint:  &suspect,
			RevokedCount:        revoked,
		},
		CreatedAt: time.Now().UTC(),
	})

	log.From(ctx).Warn("refresh_fingerprint_mismatch",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.Int64("revoked", revoked),
		slog.String("original_ip", original.IP),
		slog.String("suspect_ip", suspect.IP),
	)

	return fmt.Errorf("%s: %w", op, ErrSuspiciousActivity)
}
