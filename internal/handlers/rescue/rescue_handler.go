// internal/handlers/rescue/rescue_handler.go
package rescue

import (
	"context"
	"net/http"
	"strconv"

	"amayalert-service/internal/domain/rescue"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/response"
	"amayalert-service/internal/pkg/validation"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context, f rescue.ListFilters) ([]*rescue.Rescue, error)
	Get(ctx context.Context, id int64) (*rescue.Rescue, error)
	Update(ctx context.Context, id int64, req *rescue.UpdateRescueRequest, actorID string) (*rescue.UpdateResult, error)
}

type RescueHandler struct {
	service Service
}

func NewRescueHandler(service Service) *RescueHandler {
	return &RescueHandler{service: service}
}

func (h *RescueHandler) ListRescues(c *gin.Context) {
	var filters rescue.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}
	if err := validation.UUID("user_id", filters.UserID); err != nil {
		response.FromError(c, err, "invalid user ID")
		return
	}

	items, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, err, "failed to list rescues")
		return
	}

	response.Success(c, http.StatusOK, "rescues retrieved", items)
}

func (h *RescueHandler) GetRescue(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid rescue ID", err)
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get rescue")
		return
	}

	response.Success(c, http.StatusOK, "rescue retrieved", item)
}

// UpdateRescue changes status, priority or notes and notifies the reporter
func (h *RescueHandler) UpdateRescue(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid rescue ID", err)
		return
	}

	var req rescue.UpdateRescueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.service.Update(c.Request.Context(), id, &req, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to update rescue")
		return
	}

	response.Success(c, http.StatusOK, "rescue updated", result)
}
