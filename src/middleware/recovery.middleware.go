package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"userapi/src/models"
)

const internalErrorMessage = "Internal server error"

// Recovery turns a panic into a 500 INTERNAL_SERVER_ERROR envelope. The
// panic text is only returned to the client when exposeErrors is set.
func Recovery(logger *slog.Logger, exposeErrors bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "unhandled panic",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Any("panic", recovered),
		)

		message := internalErrorMessage
		if exposeErrors {
			if text := fmt.Sprint(recovered); text != "" {
				message = text
			}
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.Failure(models.Internal(message)))
	})
}
