package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// ContextLogger returns the request-scoped logger stored under "logger", or the
// global logger when the request has none.
func ContextLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return GetLogger()
}

// ErrorHandler recovers panics in later handlers and replies 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ContextLogger(c).Error("unhandled panic",
					zap.Any("error", err),
					zap.String("route", c.FullPath()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message:   "Internal Server Error",
					Details:   "An unexpected error occurred. Please try again later.",
					RequestID: c.GetString("request_id"),
				})
			}
		}()
		c.Next()
	}
}

// JSONError aborts with status and a structured body. Server errors log at error
// level, client errors at debug.
func JSONError(c *gin.Context, status int, message string, details string) {
	log := ContextLogger(c).With(
		zap.Int("status", status),
		zap.String("route", c.FullPath()),
		zap.String("details", details),
	)
	if status >= http.StatusInternalServerError {
		log.Error(message)
	} else {
		log.Debug(message)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message:   message,
		Details:   details,
		RequestID: c.GetString("request_id"),
	})
}
