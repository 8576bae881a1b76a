package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/pkg/log"
	"github.com/mindtutor/auth-service/internal/pkg/redact"
	"github.com/mindtutor/auth-service/internal/storage"
)

// minPasswordLen — минимальная длина пароля.
const minPasswordLen = 6

// RegisterUser регистрирует нового пользователя.
// Токены при регистрации не выпускаются — вход выполняется отдельно.
func (s *Service) RegisterUser(ctx context.Context, username, password string) (models.AccountInfo, error) {
	const op = "service.auth.RegisterUser"

	name, err := validateUsername(username)
	if err != nil {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := validatePassword(password); err != nil {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.storage.UserByUsername(ctx, name)
	if err == nil {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.Account{
		ID:           uuid.New(),
		Username:     name,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		// Гонка с параллельной регистрацией того же имени: уникальный индекс
		// остаётся последней линией защиты после предварительной проверки.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("op", op),
		slog.String("user_id", user.ID.String()),
		slog.String("username", redact.Username(name)),
	)

	return user.Info(), nil
}

// LoginUser выполняет вход по имени и паролю и выпускает пару токенов,
// привязывая refresh-токен к отпечатку устройства fp.
func (s *Service) LoginUser(ctx context.Context, username, password string, fp models.Fingerprint) (*models.TokenPair, models.AccountInfo, error) {
	const op = "service.auth.LoginUser"

	name := strings.TrimSpace(username)
	if name == "" || password == "" {
		return nil, models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByUsername(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Active {
		return nil, models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user, fp)
	if err != nil {
		return nil, models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user.Info(), nil
}

// ChangePassword меняет пароль пользователя и отзывает все его сессии.
//
// Порядок фиксированный: сначала мутация пароля, затем отзыв сессий, затем
// событие password_changed. Если отзыв упал после успешной смены пароля,
// система остаётся в несогласованном, но безопасном состоянии (новый пароль,
// старые сессии живы до ближайшего отзыва) — ошибка при этом возвращается.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	const op = "service.auth.ChangePassword"

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, currentPassword) {
		return fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	hashedPassword, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	revoked, err := s.revokeAll(ctx, userID)
	if err != nil {
		log.From(ctx).Error("change_password_revoke_failed",
			slog.String("op", op),
			slog.String("user_id", userID.String()),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.appendEvent(ctx, &models.SecurityEvent{
		ID:        uuid.New(),
		UserID:    userID,
		Action:    models.ActionPasswordChanged,
		Details:   "password changed, all sessions revoked",
		Meta:      models.SecurityEventMeta{RevokedCount: revoked},
		CreatedAt: time.Now().UTC(),
	})

	log.From(ctx).Info("password_changed",
		slog.String("op", op),
		slog.String("user_id", userID.String()),
		slog.Int64("revoked", revoked),
	)

	return nil
}

// IdentityByAccessToken проверяет access-токен и возвращает актуальную
// проекцию учётной записи. Данные всегда перечитываются из хранилища:
// клеймы токена не считаются источником истины о состоянии аккаунта.
func (s *Service) IdentityByAccessToken(ctx context.Context, accessToken string) (models.AccountInfo, error) {
	const op = "service.auth.IdentityByAccessToken"

	uid, err := s.validateAccessToken(accessToken)
	if err != nil {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, err)
	}

	if !user.Active {
		return models.AccountInfo{}, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return user.Info(), nil
}

// hashPassword хэширует пароль с помощью bcrypt (стоимость из конфигурации).
func (s *Service) hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validateUsername проверяет имя пользователя и обрезает пробелы снаружи.
func validateUsername(raw string) (string, error) {
	const op = "service.auth.validateUsername"

	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyUsername)
	}

	return name, nil
}

// validatePassword проверяет минимальные требования к паролю.
func validatePassword(pw string) error {
	const op = "service.auth.validatePassword"

	if len(pw) == 0 {
		return fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	if len([]rune(pw)) < minPasswordLen {
		return fmt.Errorf("%s: %w", op, ErrWeakPassword)
	}

	return nil
}

// appendEvent добавляет событие в журнал безопасности.
// Журнал best-effort по отношению к основной операции: отказ записи
// логируется, но уже принятые решения (отзыв, смена пароля) не откатывает.
func (s *Service) appendEvent(ctx context.Context, event *models.SecurityEvent) {
	const op = "service.auth.appendEvent"

	if err := s.storage.AppendSecurityEvent(ctx, event); err != nil {
		log.From(ctx).Error("security_event_append_failed",
			slog.String("op", op),
			slog.String("user_id", event.UserID.String()),
			slog.String("action", event.Action),
			slog.String("err", err.Error()),
		)
	}
}
