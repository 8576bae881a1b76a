package middleware

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/mindtutor/auth-service/internal/errors"
	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/service"
)

// TokenValidator проверяет access-токен и возвращает актуальную проекцию
// аккаунта. Реализуется сервисом (service.Service).
type TokenValidator interface {
	IdentityByAccessToken(ctx context.Context, accessToken string) (models.AccountInfo, error)
}

// Authenticate извлекает Bearer-токен из Authorization, валидирует его через
// v и кладёт проекцию аккаунта в контекст по ключу CtxIdentity.
// Отсутствующий или невалидный токен — единый 401 без детализации.
func Authenticate(v TokenValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apierrors.WriteError(w, r, service.ErrInvalidToken)
				return
			}

			identity, err := v.IdentityByAccessToken(r.Context(), token)
			if err != nil {
				apierrors.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), CtxIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken достаёт «сырой» токен из заголовка Authorization.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
