package middleware

import (
	"context"

	"github.com/mindtutor/auth-service/internal/models"
)

type ctxKey int

const (
	// CtxRequestID — ключ контекста со значением X-Request-Id.
	CtxRequestID ctxKey = iota
	// CtxIdentity — ключ контекста с проекцией аутентифицированного аккаунта.
	CtxIdentity
)

// IdentityFrom достаёт из контекста проекцию аккаунта, положенную
// мидлваром Authenticate.
func IdentityFrom(ctx context.Context) (models.AccountInfo, bool) {
	v, ok := ctx.Value(CtxIdentity).(models.AccountInfo)
	return v, ok
}
