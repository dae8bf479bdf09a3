package response

import (
	"errors"
	"net/http"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/gin-gonic/gin"
)

// Response defines the standard API response format.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response with a message and optional data.
func Success(c *gin.Context, status int, message string, data interface{}) {
	if status == 0 {
		status = http.StatusOK
	}

	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Error sends a standardized error response.
func Error(c *gin.Context, code int, message string, err error, data ...interface{}) {
	// Abort before writing so later handlers in the chain never run.
	c.Abort()

	response := Response{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	if len(data) > 0 {
		response.Data = data[0]
	}

	c.JSON(code, response)
}

// FromError maps a service error onto the envelope and status code.
// Validation errors surface their own message; infrastructure errors get
// the generic fallback.
func FromError(c *gin.Context, err error, fallback string) {
	var ve *xerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		Error(c, http.StatusBadRequest, ve.Message, err)
	case errors.Is(err, xerrors.ErrInvalidInput):
		Error(c, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, xerrors.ErrNotFound):
		Error(c, http.StatusNotFound, "resource not found", err)
	case errors.Is(err, xerrors.ErrConflict):
		Error(c, http.StatusConflict, err.Error(), err)
	case errors.Is(err, xerrors.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, xerrors.ErrForbidden):
		Error(c, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, xerrors.ErrRateLimited):
		Error(c, http.StatusTooManyRequests, err.Error(), nil)
	default:
		Error(c, http.StatusInternalServerError, fallback, nil)
	}
}

// Unauthorized sends a 401 Unauthorized response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message, nil)
}

// Forbidden sends a 403 Forbidden response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message, nil)
}
