package response

import (
	"net/http"

	"codeduel/pkg/errors"
	"codeduel/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response represents a standard API response
type Response struct {
	Code    errors.ErrorCode `json:"code"`              // Error code
	Message string           `json:"message"`           // Error message
	Data    interface{}      `json:"data,omitempty"`    // Response data (omit if nil)
	Details interface{}      `json:"details,omitempty"` // Additional details (omit if nil)
}

// Success sends a successful response with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    errors.Success,
		Message: "Success",
		Data:    data,
	})
}

// Error sends an error response
// It automatically extracts error code and message from the error
func Error(c *gin.Context, err error) {
	customErr := errors.GetError(err)

	logger.Error(c.Request.Context(), "request error",
		zap.Int("code", int(customErr.Code)),
		zap.String("message", customErr.Error()),
	)

	c.JSON(customErr.Code.HTTPStatus(), Response{
		Code:    customErr.Code,
		Message: customErr.Error(),
		Details: customErr.Details,
	})
}

// ErrorWithCode sends an error response with specific error code
func ErrorWithCode(c *gin.Context, code errors.ErrorCode, message string) {
	if message == "" {
		message = code.Message()
	}

	c.JSON(code.HTTPStatus(), Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest sends a 400 bad request error
func BadRequest(c *gin.Context, message string) {
	ErrorWithCode(c, errors.InvalidParams, message)
}

// NotFound sends a 404 not found error
func NotFound(c *gin.Context, message string) {
	ErrorWithCode(c, errors.NotFound, message)
}
