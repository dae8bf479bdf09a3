// internal/middleware/auth_middleware.go
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"amayalert-service/internal/domain/user"
	xerrors "amayalert-service/internal/pkg/errors"
	"amayalert-service/internal/pkg/jwt"
	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "user_id"
	ctxJTI    = "jti"
	ctxRole   = "role"
	ctxEmail  = "email"
	ctxClaims = "claims"
)

// TokenValidator checks a bearer token against the session store.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*jwt.Claims, error)
}

type AuthMiddleware struct {
	authService TokenValidator
}

func NewAuthMiddleware(authService TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Auth is the base authentication middleware that validates JWT tokens
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token")
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, xerrors.ErrForbidden):
				response.Forbidden(c, "admin access required")
			case errors.Is(err, xerrors.ErrUnauthorized):
				response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			default:
				response.Error(c, http.StatusInternalServerError, "failed to validate token", nil)
			}
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

// RequireRole middleware that requires user to have one of the specified roles
// MUST be used after Auth() middleware
func (m *AuthMiddleware) RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetRole(c)
		if role == "" {
			response.Forbidden(c, "no role found - authentication required")
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		err := errors.New("user does not have required role")
		response.Error(c, http.StatusForbidden, "insufficient permissions", err, map[string]interface{}{
			"required_roles": roles,
			"user_role":      role,
		})
	}
}

// StaffOnly returns middlewares for routes open to admins and sub-admins
func (m *AuthMiddleware) StaffOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(user.RoleAdmin, user.RoleSubAdmin),
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole(user.RoleAdmin),
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Browsers cannot set headers on WebSocket upgrades.
	return c.Query("token")
}
