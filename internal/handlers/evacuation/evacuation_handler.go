// internal/handlers/evacuation/evacuation_handler.go
package evacuation

import (
	"context"
	"net/http"
	"strconv"

	"amayalert-service/internal/domain/evacuation"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context, f evacuation.ListFilters) ([]*evacuation.Center, error)
	Get(ctx context.Context, id int64) (*evacuation.Center, error)
	Create(ctx context.Context, req *evacuation.CenterRequest, actorID string) (*evacuation.CreateResult, error)
	Update(ctx context.Context, id int64, req *evacuation.UpdateCenterRequest, actorID string) (*evacuation.Center, error)
	Delete(ctx context.Context, id int64, actorID string) error
}

type EvacuationHandler struct {
	service Service
}

func NewEvacuationHandler(service Service) *EvacuationHandler {
	return &EvacuationHandler{service: service}
}

func (h *EvacuationHandler) ListCenters(c *gin.Context) {
	var filters evacuation.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	centers, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, err, "failed to list evacuation centers")
		return
	}

	response.Success(c, http.StatusOK, "evacuation centers retrieved", centers)
}

func (h *EvacuationHandler) GetCenter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid center ID", err)
		return
	}

	center, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get evacuation center")
		return
	}

	response.Success(c, http.StatusOK, "evacuation center retrieved", center)
}

// CreateCenter stores a center and emails every user about it
func (h *EvacuationHandler) CreateCenter(c *gin.Context) {
	var req evacuation.CenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.service.Create(c.Request.Context(), &req, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to create evacuation center")
		return
	}

	response.Success(c, http.StatusCreated, "evacuation center created", result)
}

// UpdateCenter applies a partial update; omitted fields are kept.
func (h *EvacuationHandler) UpdateCenter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid center ID", err)
		return
	}

	var req evacuation.UpdateCenterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	center, err := h.service.Update(c.Request.Context(), id, &req, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to update evacuation center")
		return
	}

	response.Success(c, http.StatusOK, "evacuation center updated", center)
}

func (h *EvacuationHandler) DeleteCenter(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid center ID", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.MustGetUserID(c)); err != nil {
		response.FromError(c, err, "failed to delete evacuation center")
		return
	}

	response.Success(c, http.StatusOK, "evacuation center deleted", nil)
}
