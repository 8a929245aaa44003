package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/cyberlearn_backend/internal/apperrors"
	"github.com/gin-gonic/gin"
)

const genericServerMessage = "Internal server error"

// ErrorHandler renders the last error pushed with c.Error. Operational
// AppErrors keep their status and message; anything else is logged and
// answered with 500, with the raw message hidden in production.
func ErrorHandler(isProduction bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		logger := GetLoggerFromCtx(c.Request.Context())

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code > 0 && appErr.Code < http.StatusInternalServerError {
			logger.Info("Request failed", slog.Int("status", appErr.Code), slog.String("error", err.Error()))
			c.JSON(appErr.Code, gin.H{"success": false, "message": appErr.Message})
			return
		}

		logger.Error("Unhandled error", slog.String("error", err.Error()))
		message := genericServerMessage
		if !isProduction {
			message = err.Error()
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": message})
	}
}
