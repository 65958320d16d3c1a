// Package middleware provides HTTP middleware for the expense API.
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "ringi.sh/ringi/internal/pkg/errors"
	"ringi.sh/ringi/internal/pkg/logger"
)

// ErrorHandler is a Gin middleware that provides centralized error handling.
// It captures errors added via c.Error() and returns a consistent JSON response.
// Gin best practice: separate error handling from route handlers.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		traceID := GetRequestID(c.Request.Context())

		// Check if it's an AppError with structured info
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			logger.Warn("request error",
				zap.String("code", appErr.Code),
				zap.String("message", appErr.Message),
				zap.Int("status", appErr.HTTPStatus),
				zap.String("traceId", traceID),
				zap.Error(appErr.Err),
			)
			body := gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
				"traceId": traceID,
			}
			if len(appErr.Details) > 0 {
				body["details"] = appErr.Details
			}
			c.JSON(appErr.HTTPStatus, body)
			return
		}

		// Fallback: generic 500 error
		logger.Error("unhandled request error", zap.String("traceId", traceID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "INTERNAL_ERROR",
			"message": "An internal error occurred",
			"traceId": traceID,
		})
	}
}
