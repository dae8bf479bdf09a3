// internal/middleware/helpers.go
package middleware

import (
	"amayalert-service/internal/domain/user"
	"amayalert-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// GetUserID gets the authenticated user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxUserID)
	return id, id != ""
}

// MustGetUserID gets user ID from context or panics
func MustGetUserID(c *gin.Context) string {
	id, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return id
}

// MustGetClaims gets the verified token claims or panics
func MustGetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(ctxClaims)
	if !exists {
		panic("claims not found in context")
	}
	return v.(*jwt.Claims)
}

// GetRole gets user role from context
func GetRole(c *gin.Context) user.Role {
	return user.Role(c.GetString(ctxRole))
}
