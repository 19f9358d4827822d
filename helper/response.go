package helper

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrInvalidOperation ErrorCode = "INVALID_OPERATION"
	ErrNotFound         ErrorCode = "NOT_FOUND"
	ErrUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrForbidden        ErrorCode = "FORBIDDEN"
	ErrRateLimited      ErrorCode = "RATE_LIMITED"
	ErrConflict         ErrorCode = "CONFLICT"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Code    ErrorCode   `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func SendSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func SendError(c *gin.Context, status int, err error, code ErrorCode) {
	c.JSON(status, Response{
		Success: false,
		Message: err.Error(),
		Code:    code,
	})
}

// SendRateLimited reports a cooldown rejection together with the time the
// caller has to wait before retrying.
func SendRateLimited(c *gin.Context, err error, secondsRemaining int64) {
	c.JSON(http.StatusTooManyRequests, gin.H{
		"success":          false,
		"message":          err.Error(),
		"code":             ErrRateLimited,
		"secondsRemaining": secondsRemaining,
	})
}
