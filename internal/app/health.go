// internal/app/health.go
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type healthHandler struct {
	db    pinger
	redis *redis.Client
}

func newHealthHandler(db pinger, redisClient *redis.Client) *healthHandler {
	return &healthHandler{db: db, redis: redisClient}
}

func (h *healthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{"database": "ok", "redis": "ok"}
	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"success": status == http.StatusOK,
		"status":  http.StatusText(status),
		"checks":  checks,
		"time":    time.Now().UTC(),
	})
}
