package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/pkg/log"
)

// Маркеры типа токена в клейме typ. Оба вида токенов подписаны одним
// секретом, поэтому тип проверяется явно: refresh-токен не должен проходить
// как access-токен (иначе он переживёт отзыв реестра) и наоборот.
const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type accessClaims struct {
	TokenType string `json:"typ"`
	Username  string `json:"name"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// generateAccessToken генерирует access-токен.
// Клеймы (имя, роль) берутся из живого состояния аккаунта на момент выпуска.
func (s *Service) generateAccessToken(ctx context.Context, user *models.Account, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	claims := accessClaims{
		TokenType: tokenTypeAccess,
		Username:  user.Username,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		log.From(ctx).Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// validateAccessToken валидирует access-токен и возвращает ID субъекта.
func (s *Service) validateAccessToken(tokenStr string) (uuid.UUID, error) {
	const op = "service.token.validateAccessToken"

	token, err := jwt.ParseWithClaims(tokenStr, &accessClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	// refresh-токен подписан тем же секретом, но access-токеном не является:
	// он живёт дольше и его валидность гейтится реестром, а не подписью.
	if claims.TokenType != tokenTypeAccess {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// generateRefreshToken выпускает подписанный refresh-токен и сохраняет в
// реестре запись с его хэшем, отпечатком устройства и сроком действия.
func (s *Service) generateRefreshToken(ctx context.Context, user *models.Account, fp models.Fingerprint, now time.Time) (string, error) {
	const op = "service.token.generateRefreshToken"

	claims := refreshClaims{
		TokenType: tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID.String(),
			Audience:  jwt.ClaimStrings(s.cfg.Audience),
			// jti гарантирует уникальность токена даже при одинаковых
			// клеймах у параллельных входов с разных устройств.
			ID: uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	plain, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		log.From(ctx).Error("refresh_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	hash, err := s.hashRefreshToken(plain)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	record := &models.RefreshTokenRecord{
		ID:          uuid.New(),
		UserID:      user.ID,
		TokenHash:   hash,
		Fingerprint: fp,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.RefreshTokenTTL),
	}

	if err := s.storage.SaveRefreshToken(ctx, record); err != nil {
		log.From(ctx).Error("save_refresh_token_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return plain, nil
}

// validateRefreshClaims проверяет подпись и exp-клейм refresh-токена и
// возвращает ID субъекта. Реестр на этом шаге не проверяется —
// подпись сама по себе валидность не даёт.
func (s *Service) validateRefreshClaims(tokenStr string) (uuid.UUID, error) {
	const op = "service.token.validateRefreshClaims"

	token, err := jwt.ParseWithClaims(tokenStr, &refreshClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
			}

			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	claims, ok := token.Claims.(*refreshClaims)
	if !ok || !token.Valid {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if claims.TokenType != tokenTypeRefresh {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	uid, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return uid, nil
}

// refreshDigest — SHA-256-дайджест строки токена в base64.
// bcrypt обрезает вход на 72 байтах, а JWT длиннее, поэтому под bcrypt
// кладётся фиксированный дайджест, а не сама строка.
func refreshDigest(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	return []byte(base64.RawURLEncoding.EncodeToString(sum[:]))
}

// hashRefreshToken строит солёный bcrypt-хэш от дайджеста токена.
func (s *Service) hashRefreshToken(plain string) (string, error) {
	const op = "service.token.hashRefreshToken"

	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword(refreshDigest(plain), cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(hash), nil
}

// matchRefreshToken сверяет «сырой» токен с хэшем записи реестра.
func matchRefreshToken(recordHash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(recordHash), refreshDigest(plain)) == nil
}

// issueTokenPair выпускает пару access+refresh и записывает refresh в реестр.
// Параллельные вызовы для одного пользователя независимы: каждый вход
// с нового устройства создаёт собственную запись реестра.
func (s *Service) issueTokenPair(ctx context.Context, user *models.Account, fp models.Fingerprint) (*models.TokenPair, error) {
	const op = "service.token.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, err := s.generateRefreshToken(ctx, user, fp, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}
