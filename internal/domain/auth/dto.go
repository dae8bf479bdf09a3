// internal/domain/auth/dto.go
package auth

import (
	"time"

	"amayalert-service/internal/domain/user"
)

type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

type LoginResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	ExpiresIn   int        `json:"expires_in"`
	ExpiresAt   time.Time  `json:"expires_at"`
	User        *user.User `json:"user"`
}
