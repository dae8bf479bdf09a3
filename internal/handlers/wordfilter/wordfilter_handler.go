// internal/handlers/wordfilter/wordfilter_handler.go
package wordfilter

import (
	"context"
	"net/http"
	"strconv"

	"amayalert-service/internal/domain/wordfilter"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Service interface {
	List(ctx context.Context) ([]*wordfilter.WordFilter, error)
	Create(ctx context.Context, word, actorID string) (*wordfilter.WordFilter, error)
	Delete(ctx context.Context, id int64, actorID string) error
}

type WordFilterHandler struct {
	service Service
}

func NewWordFilterHandler(service Service) *WordFilterHandler {
	return &WordFilterHandler{service: service}
}

func (h *WordFilterHandler) ListWords(c *gin.Context) {
	words, err := h.service.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err, "failed to list word filters")
		return
	}
	response.Success(c, http.StatusOK, "word filters retrieved", words)
}

func (h *WordFilterHandler) CreateWord(c *gin.Context) {
	var req wordfilter.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "Word is required", err)
		return
	}

	w, err := h.service.Create(c.Request.Context(), req.Word, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to create word filter")
		return
	}
	response.Success(c, http.StatusCreated, "word filter created", w)
}

func (h *WordFilterHandler) DeleteWord(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid word filter ID", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.MustGetUserID(c)); err != nil {
		response.FromError(c, err, "failed to delete word filter")
		return
	}
	response.Success(c, http.StatusOK, "word filter deleted", nil)
}
