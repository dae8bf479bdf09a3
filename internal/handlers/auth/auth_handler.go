// internal/handlers/auth/auth_handler.go
package auth

import (
	"context"
	"net/http"

	"amayalert-service/internal/domain/auth"
	"amayalert-service/internal/domain/user"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	Me(ctx context.Context, userID string) (*user.User, error)
}

type AuthHandler struct {
	authService Service
	logger      *zap.Logger
}

func NewAuthHandler(authService Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles staff login
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "email and password are required", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.FromError(c, err, "login failed")
		return
	}

	h.logger.Info("user logged in",
		zap.String("user_id", loginResp.User.ID),
		zap.String("role", string(loginResp.User.Role)),
	)

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// Logout revokes the caller's token
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.MustGetClaims(c)

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("logout failed",
			zap.String("user_id", claims.UserID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetMe returns the current user's profile
func (h *AuthHandler) GetMe(c *gin.Context) {
	u, err := h.authService.Me(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to get profile")
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", u)
}
