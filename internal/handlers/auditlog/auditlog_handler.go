// internal/handlers/auditlog/auditlog_handler.go
package auditlog

import (
	"context"
	"net/http"

	"amayalert-service/internal/domain/auditlog"
	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	Latest(ctx context.Context) ([]*auditlog.Entry, error)
}

type LogHandler struct {
	service Service
}

func NewLogHandler(service Service) *LogHandler {
	return &LogHandler{service: service}
}

// ListLogs returns the most recent audit entries
func (h *LogHandler) ListLogs(c *gin.Context) {
	entries, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to load logs")
		return
	}
	response.Success(c, http.StatusOK, "logs retrieved", entries)
}
