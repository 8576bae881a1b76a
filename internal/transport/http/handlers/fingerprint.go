package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/mindtutor/auth-service/internal/models"
)

// fingerprintFromRequest собирает отпечаток устройства из запроса:
// User-Agent плюс IP клиента. Любая из частей может отсутствовать —
// неполный отпечаток сервис считает неопознаваемым.
func fingerprintFromRequest(r *http.Request) models.Fingerprint {
	return models.Fingerprint{
		UserAgent: strings.TrimSpace(r.UserAgent()),
		IP:        clientIP(r),
	}
}

// clientIP определяет IP клиента: X-Forwarded-For (первый адрес в цепочке),
// затем X-Real-Ip, затем хост из RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			first = xff[:idx]
		}
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if rip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); rip != "" {
		return rip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}

	return host
}
