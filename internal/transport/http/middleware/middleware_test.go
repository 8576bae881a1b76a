package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mindtutor/auth-service/internal/models"
	"github.com/mindtutor/auth-service/internal/service"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из каждой записи в map[string]any;
//   - не создаёт реальных I/O, чтобы не паниковать в тестах.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)

	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}

	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errEnvelope struct {
	Error apiError `json:"error"`
}

func decodeErr(t *testing.T, rr *httptest.ResponseRecorder) errEnvelope {
	t.Helper()

	var env errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	m1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m1-end")
		})
	}

	m2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m2-end")
		})
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	chain := Chain(final, m1, m2)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenID string
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = r.Header.Get("X-Request-Id")
		if v := r.Context().Value(CtxRequestID); v != nil {
			seenCtxID, _ = v.(string)
		}
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, RequestID())
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/rid"))

	respID := rr.Header().Get("X-Request-Id")
	require.NotEmpty(t, respID)
	require.Len(t, respID, 32) // 16 байт → 32 hex-символа

	require.Equal(t, respID, seenID)
	require.Equal(t, respID, seenCtxID)
}

func TestRequestID_UseExisting(t *testing.T) {
	const given = "abc123-existing-id"
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Context().Value(CtxRequestID); v != nil {
			seenCtxID, _ = v.(string)
		}
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, RequestID())
	rr := httptest.NewRecorder()
	req := makeReq("/rid")
	req.Header.Set("X-Request-Id", given)
	chain.ServeHTTP(rr, req)

	require.Equal(t, given, rr.Header().Get("X-Request-Id"))
	require.Equal(t, given, seenCtxID)
}

func TestLogging_WritesRecordWithRequestID(t *testing.T) {
	cap := &capHandler{}
	logger := slog.New(cap)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	chain := Chain(h, RequestID(), Logging(logger))
	rr := httptest.NewRecorder()
	req := makeReq("/log")
	req.Header.Set("X-Request-Id", "rid-42")
	chain.ServeHTTP(rr, req)

	require.Equal(t, 1, cap.count)
	require.Equal(t, "http", cap.lastMsg)
	require.Equal(t, slog.LevelInfo, cap.lastLvl)
	require.Equal(t, "rid-42", cap.attrs["request_id"])
	require.Equal(t, http.MethodGet, cap.attrs["method"])
	require.Equal(t, "/log", cap.attrs["path"])
	require.EqualValues(t, http.StatusNoContent, cap.attrs["status"])
}

func TestRecover_PanicBecomesInternal500(t *testing.T) {
	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	chain := Chain(h, Recover())
	rr := httptest.NewRecorder()

	require.NotPanics(t, func() {
		chain.ServeHTTP(rr, makeReq("/panic"))
	})

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeErr(t, rr)
	require.Equal(t, "internal", env.Error.Code)
	// Детали паники наружу не утекают.
	require.NotContains(t, rr.Body.String(), "boom")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var hadDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, Timeout(50*time.Millisecond))
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/t"))

	require.True(t, hadDeadline)
}

func TestTimeout_RespectsExistingDeadline(t *testing.T) {
	var seen time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	outer, cancel := context.WithDeadline(context.Background(), time.Now().Add(time.Hour))
	defer cancel()

	chain := Chain(h, Timeout(time.Millisecond))
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/t").WithContext(outer))

	// Внешний (более длинный) deadline не перетирается.
	require.True(t, seen.After(time.Now().Add(30*time.Minute)))
}

func TestTimeout_ZeroIsNoop(t *testing.T) {
	var hadDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, Timeout(0))
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/t"))

	require.False(t, hadDeadline)
}

// stubValidator — TokenValidator с фиксированным ответом.
type stubValidator struct {
	info models.AccountInfo
	err  error

	gotToken string
}

func (s *stubValidator) IdentityByAccessToken(_ context.Context, token string) (models.AccountInfo, error) {
	s.gotToken = token
	if s.err != nil {
		return models.AccountInfo{}, s.err
	}
	return s.info, nil
}

func TestAuthenticate_OK(t *testing.T) {
	want := models.AccountInfo{ID: uuid.New(), Username: "alice", Role: models.RoleUser, Active: true}
	v := &stubValidator{info: want}

	var got models.AccountInfo
	var ok bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	chain := Chain(h, Authenticate(v))
	rr := httptest.NewRecorder()
	req := makeReq("/me")
	req.Header.Set("Authorization", "Bearer the-access-token")
	chain.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "the-access-token", v.gotToken)
	require.True(t, ok)
	require.Equal(t, want, got)
}

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "no header", value: ""},
		{name: "not bearer", value: "Basic abc"},
		{name: "bare prefix", value: "Bearer "},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			v := &stubValidator{}
			called := false
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			})

			chain := Chain(h, Authenticate(v))
			rr := httptest.NewRecorder()
			req := makeReq("/me")
			if tc.value != "" {
				req.Header.Set("Authorization", tc.value)
			}
			chain.ServeHTTP(rr, req)

			require.False(t, called)
			require.Equal(t, http.StatusUnauthorized, rr.Code)
			require.Equal(t, "unauthenticated", decodeErr(t, rr).Error.Code)
		})
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	v := &stubValidator{err: service.ErrInvalidToken}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	chain := Chain(h, Authenticate(v))
	rr := httptest.NewRecorder()
	req := makeReq("/me")
	req.Header.Set("Authorization", "Bearer bad-token")
	chain.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Equal(t, "unauthenticated", decodeErr(t, rr).Error.Code)
}

func TestAuthenticate_StorageFailureIs500(t *testing.T) {
	v := &stubValidator{err: errors.New("db down")}

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be called")
	})

	chain := Chain(h, Authenticate(v))
	rr := httptest.NewRecorder()
	req := makeReq("/me")
	req.Header.Set("Authorization", "Bearer token")
	chain.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "internal", decodeErr(t, rr).Error.Code)
}
