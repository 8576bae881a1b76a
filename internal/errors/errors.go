// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход принимает доменную ошибку сервиса, на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Все отказы аутентификации (неверные учётные данные, битый/просроченный/
// аномальный токен) намеренно неразличимы: единый 401 "unauthenticated".
// Различающие детали остаются во внутренних логах и журнале событий.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mindtutor/auth-service/internal/service"
)

// APIError — единый формат ошибки для клиента.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ErrInvalidArgument — локальная ошибка разбора входа HTTP-слоя
// (битый JSON, неизвестные поля). Маппится в 400.
var ErrInvalidArgument = errors.New("invalid argument")

// ToHTTP конвертирует доменную ошибку в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil — это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг;
//   - ошибки валидации — 400 с безопасной детализацией поля;
//   - конфликт имени — 409;
//   - любой отказ аутентификации — 401 без детализации;
//   - прочее (ошибки хранилища, подписи и т.п.) — 500 без утечки деталей.
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, envelope("internal", "internal error")
	}

	switch {
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest, envelope("invalid_argument", "invalid argument")
	case errors.Is(err, service.ErrEmptyUsername):
		return http.StatusBadRequest, envelope("invalid_argument", "username is empty")
	case errors.Is(err, service.ErrEmptyPassword):
		return http.StatusBadRequest, envelope("invalid_argument", "password is empty")
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest, envelope("invalid_argument", "password is too short")
	case errors.Is(err, service.ErrUsernameTaken):
		return http.StatusConflict, envelope("already_exists", "username already taken")
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired),
		errors.Is(err, service.ErrSuspiciousActivity),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusUnauthorized, envelope("unauthenticated", "unauthenticated")
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, envelope("deadline_exceeded", "deadline exceeded")
	default:
		return http.StatusInternalServerError, envelope("internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func envelope(code, message string) ErrorResponse {
	return ErrorResponse{Error: APIError{Code: code, Message: message}}
}
