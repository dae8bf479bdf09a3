// internal/handlers/user/user_handler.go
package user

import (
	"context"
	"net/http"

	"amayalert-service/internal/domain/user"
	"amayalert-service/internal/middleware"
	"amayalert-service/internal/pkg/response"
	"amayalert-service/internal/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, f user.ListFilters) ([]*user.User, error)
	Get(ctx context.Context, id string) (*user.User, error)
	Create(ctx context.Context, req *user.CreateUserRequest, actorID string) (*user.CreateUserResponse, error)
	Update(ctx context.Context, id string, req *user.UpdateUserRequest, actorID string) (*user.User, error)
	Delete(ctx context.Context, id, actorID string) error
}

type UserHandler struct {
	userService Service
	logger      *zap.Logger
}

func NewUserHandler(userService Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	var filters user.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	users, err := h.userService.List(c.Request.Context(), filters)
	if err != nil {
		response.FromError(c, err, "failed to list users")
		return
	}

	response.Success(c, http.StatusOK, "users retrieved", users)
}

// userID reads the path id and rejects anything that is not a UUID.
func userID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := validation.UUID("id", id); err != nil {
		response.FromError(c, err, "invalid user ID")
		return "", false
	}
	return id, true
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	u, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err, "failed to get user")
		return
	}

	response.Success(c, http.StatusOK, "user retrieved", u)
}

// CreateUser creates an account with a generated password and emails it
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req user.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.userService.Create(c.Request.Context(), &req, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to create user")
		return
	}

	msg := "user created, credentials emailed"
	if !result.EmailSent {
		h.logger.Warn("credentials email not delivered", zap.String("user_id", result.User.ID))
		msg = "user created, credentials email could not be sent"
	}
	response.Success(c, http.StatusCreated, msg, result)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	u, err := h.userService.Update(c.Request.Context(), id, &req, middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, err, "failed to update user")
		return
	}

	response.Success(c, http.StatusOK, "user updated", u)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, middleware.MustGetUserID(c)); err != nil {
		response.FromError(c, err, "failed to delete user")
		return
	}

	response.Success(c, http.StatusOK, "user deleted", nil)
}
