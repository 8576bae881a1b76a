package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mindtutor/auth-service/internal/service"
	"github.com/mindtutor/auth-service/internal/transport/http/handlers"
	"github.com/mindtutor/auth-service/internal/transport/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Metrics(),            // счётчики/гистограммы по маршрутам
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	// Публичные маршруты.
	root.Post("/auth/register", h.RegisterUser)
	root.Post("/auth/login", h.LoginUser)
	root.Post("/auth/refresh", h.RefreshToken)

	// Маршруты под access-токеном.
	root.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(svc))

		r.Get("/auth/me", h.Me)
		r.Post("/auth/logout", h.Logout)
		r.Patch("/auth/change-password", h.ChangePassword)
		r.Delete("/auth/sessions/all", h.RevokeAllSessions)
	})

	return root
}
