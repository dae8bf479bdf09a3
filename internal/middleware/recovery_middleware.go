// internal/middleware/recovery_middleware.go
package middleware

import (
	"net/http"

	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a handler panic into the standard 500 envelope. Hijacked
// websocket connections and responses that already started are only
// aborted, since nothing more can be written to them.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			userID, _ := GetUserID(c)
			logger.Error("panic recovered",
				zap.Any("error", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("user_id", userID),
				zap.String("role", string(GetRole(c))),
				zap.Stack("stack"),
			)

			if c.Writer.Written() || c.IsWebsocket() {
				c.Abort()
				return
			}
			response.Error(c, http.StatusInternalServerError, "internal server error", nil)
		}()
		c.Next()
	}
}
