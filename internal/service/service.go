// service содержит бизнес-логику auth-сервиса: регистрацию и аутентификацию
// пользователей, выпуск/проверку токенов, машину состояний обновления
// refresh-токена (с детекцией аномалий по отпечатку устройства) и каскадный
// отзыв сессий. Работа с хранилищем идёт через интерфейсы пакета storage.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; экземпляр безопасен для
//     конкурентного использования из разных горутин при условии, что
//     переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются сентинелами и далее маппятся транспортом на
//     HTTP-статусы (см. комментарии к переменным ошибок ниже). Все отказы
//     аутентификации наружу неразличимы (единый 401) — различающие детали
//     остаются в логах и журнале событий безопасности.
package service

import (
	"errors"

	"github.com/mindtutor/auth-service/internal/config"
	"github.com/mindtutor/auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна, пользователь не найден
	// или учётная запись отключена. Транспорт: 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — токен (access/refresh) некорректен по формату/подписи
	// или отсутствует в реестре. Транспорт: 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия токена истёк. Транспорт: 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrSuspiciousActivity — отпечаток устройства не совпал с зафиксированным
	// при выпуске; все сессии пользователя отозваны. Транспорт: 401
	// (без указания причины — наружу отказ неотличим от прочих).
	ErrSuspiciousActivity = errors.New("suspicious activity detected, all sessions revoked")

	// ErrUsernameTaken — имя пользователя уже занято. Транспорт: 409.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound — учётная запись не существует на момент проверки токена.
	// Транспорт: 401 (на auth-путях отказ не детализируется).
	ErrUserNotFound = errors.New("user not found")

	// ErrEmptyUsername — имя пользователя пустое. Транспорт: 400.
	ErrEmptyUsername = errors.New("username is empty")

	// ErrWeakPassword — пароль короче минимально допустимого. Транспорт: 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. Транспорт: 400.
	ErrEmptyPassword = errors.New("password is empty")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
}

// New создаёт новый экземпляр Service.
func New(storage storage.Storage, cfg config.AuthConfig) *Service {
	return &Service{
		storage: storage,
		cfg:     cfg,
	}
}
