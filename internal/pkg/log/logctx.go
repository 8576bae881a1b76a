// log прокидывает request-scoped slog.Logger через context.Context:
// Logging-мидлвар кладёт логгер с request_id, сервисные слои достают его
// через From, не таская логгер параметром.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into возвращает контекст с привязанным логгером l.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From возвращает логгер из контекста; вне HTTP-запроса (janitor, тесты)
// контекст логгера не несёт — тогда отдаётся slog.Default().
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}
