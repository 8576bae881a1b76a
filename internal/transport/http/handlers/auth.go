package handlers

import (
	"net/http"

	apierrors "github.com/mindtutor/auth-service/internal/errors"
	"github.com/mindtutor/auth-service/internal/service"
	"github.com/mindtutor/auth-service/internal/transport/http/middleware"
)

// RegisterUser — POST /auth/register. Токены не выпускает: вход отдельный.
func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	info, err := h.svc.RegisterUser(r.Context(), in.Username, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userFromInfo(info))
}

// LoginUser — POST /auth/login. Привязывает refresh-токен к отпечатку
// устройства (User-Agent + IP) из запроса.
func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	pair, info, err := h.svc.LoginUser(r.Context(), in.Username, in.Password, fingerprintFromRequest(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken:     pair.AccessToken,
		RefreshToken:    pair.RefreshToken,
		AccessExpiresAt: pair.AccessExpiresAt.Unix(),
		User:            userFromInfo(info),
	})
}

// RefreshToken — POST /auth/refresh. Возвращает только новый access-токен:
// refresh-токен не ротируется и действует до собственного истечения.
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if in.RefreshToken == "" {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	accessToken, expiresAt, err := h.svc.Refresh(r.Context(), in.RefreshToken, fingerprintFromRequest(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, refreshResponse{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt.Unix(),
	})
}

// Me — GET /auth/me. Проекция аккаунта уже перечитана из хранилища
// мидлваром Authenticate.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	writeJSON(w, http.StatusOK, userFromInfo(identity))
}

// Logout — POST /auth/logout. Идемпотентен.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.svc.Logout(r.Context(), identity.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{Ok: true})
}

// ChangePassword — PATCH /auth/change-password.
// Успешная смена пароля отзывает все сессии пользователя.
func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in changePasswordRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, apierrors.ErrInvalidArgument)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), identity.ID, in.CurrentPassword, in.NewPassword); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{Ok: true})
}

// RevokeAllSessions — DELETE /auth/sessions/all.
// Возвращает число отозванных сессий.
func (h *Handlers) RevokeAllSessions(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	revoked, err := h.svc.RevokeAllSessions(r.Context(), identity.ID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, revokeAllResponse{RevokedCount: revoked})
}
