// Входные/выходные модели REST-слоя.
package handlers

import "github.com/mindtutor/auth-service/internal/models"

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// PreferredTopics принимается для совместимости с клиентом регистрации,
	// но обрабатывается профильным сервисом, не этим.
	PreferredTopics []string `json:"preferred_topics,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

type loginResponse struct {
	AccessToken     string       `json:"access_token"`
	RefreshToken    string       `json:"refresh_token"`
	AccessExpiresAt int64        `json:"access_expires_at"` // Unix UTC
	User            userResponse `json:"user"`
}

type refreshResponse struct {
	AccessToken     string `json:"access_token"`
	AccessExpiresAt int64  `json:"access_expires_at"` // Unix UTC
}

type okResponse struct {
	Ok bool `json:"ok"`
}

type revokeAllResponse struct {
	RevokedCount int64 `json:"revoked_count"`
}

func userFromInfo(info models.AccountInfo) userResponse {
	return userResponse{
		ID:       info.ID.String(),
		Username: info.Username,
		Role:     info.Role,
		Active:   info.Active,
	}
}
