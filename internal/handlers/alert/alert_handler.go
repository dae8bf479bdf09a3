// internal/handlers/alert/alert_handler.go
package alert

import (
	"context"
	"net/http"
	"strconv"

	"amayalert-service/internal/domain/alert"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	CreateAndBroadcast(ctx context.Context, req *alert.CreateAlertRequest, actorID string) (*alert.BroadcastResult, error)
	List(ctx context.Context, f alert.ListFilters) ([]*alert.Alert, error)
	Get(ctx context.Context, id int64) (*alert.Alert, error)
	Update(ctx context.Context, id int64, req *alert.UpdateAlertRequest, actorID string) (*alert.Alert, error)
	SoftDelete(ctx context.Context, id int64, actorID string) error
}

type AlertHandler struct {
	alertService Service
	logger       *zap.Logger
}

func NewAlertHandler(alertService Service, logger *zap.Logger) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
		logger:       logger,
	}
}

// CreateAlert persists an alert and broadcasts it to every user
func (h *AlertHandler) CreateAlert(c *gin.Context) {
	actorID := middleware.MustGetUserID(c)

	var req alert.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	if req.UserID != "" && req.UserID != actorID {
		h.logger.Warn("alert request names a different author, using the token's",
			zap.String("body_user_id", req.UserID),
			zap.String("user_id", actorID),
		)
	}

	result, err := h.alertService.CreateAndBroadcast(c.Request.Context(), &req, actorID)
	if err != nil {
		h.logger.Error("create alert failed", zap.Error(err))
		response.FromError(c, err, "failed to create alert")
		return
	}

	response.Success(c, http.StatusCreated, result.Message, result)
}

// ListAlerts returns live alerts, optionally filtered
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	var filters alert.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	alerts, err := h.alertService.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, err, "failed to list alerts")
		return
	}

	response.Success(c, http.StatusOK, "alerts retrieved", alerts)
}

// GetAlert retrieves an alert by ID
func (h *AlertHandler) GetAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid alert ID", err)
		return
	}

	a, err := h.alertService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get alert")
		return
	}

	response.Success(c, http.StatusOK, "alert retrieved", a)
}

// UpdateAlert applies a partial update
func (h *AlertHandler) UpdateAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid alert ID", err)
		return
	}

	var req alert.UpdateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	a, err := h.alertService.Update(c.Request.Context(), id, &req, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to update alert")
		return
	}

	response.Success(c, http.StatusOK, "alert updated", a)
}

// DeleteAlert soft-deletes an alert
func (h *AlertHandler) DeleteAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid alert ID", err)
		return
	}

	if err := h.alertService.SoftDelete(c.Request.Context(), id, middleware.MustGetUserID(c)); err != nil {
		response.FromError(c, err, "failed to delete alert")
		return
	}

	response.Success(c, http.StatusOK, "alert deleted", nil)
}
