package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Unhandled panic", zap.Any("error", err), zap.String("path", c.Request.URL.Path))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, logger *zap.Logger, status int, message string, details any) {
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Any("details", details), zap.String("path", c.Request.URL.Path))
	} else {
		logger.Debug(message, zap.Any("details", details), zap.String("path", c.Request.URL.Path))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Details: details})
}
