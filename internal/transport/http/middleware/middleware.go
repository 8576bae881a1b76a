// middleware содержит HTTP-мидлвары auth-сервиса: request id, логирование,
// recover, таймаут, метрики и аутентификацию по access-токену.
package middleware

import (
	"net/http"
)

// Middleware оборачивает http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain навешивает мидлвары на h так, что первый в списке оказывается
// внешним (исполняется раньше остальных).
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusWriter перехватывает статус и число записанных байт ответа —
// их снимают Logging и Metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
	count  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	// Write без явного WriteHeader означает 200.
	if w.status == 0 {
		w.status = http.StatusOK
	}

	count, err := w.ResponseWriter.Write(p)
	w.count += count
	return count, err
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w}
}
