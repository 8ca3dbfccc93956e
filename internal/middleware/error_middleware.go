package middleware

import (
	"messenger/internal/services"
	"messenger/internal/transport/httpdto"
	messenger_errors "messenger/pkg/errors"
	"messenger/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders the last error a handler attached with c.Error as the
// JSON envelope. Infrastructure and unclassified failures are logged and their
// details kept out of the response.
func ErrorHandler(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := services.HTTPStatus(err)
		code := messenger_errors.Code(err)
		msg := err.Error()
		if status >= 500 {
			if l != nil {
				l.Error(c.Request.Context(), "request failed", zap.Error(err), zap.String("code", code))
			}
			msg = "internal error"
			if messenger_errors.IsInfrastructure(err) {
				msg = "storage unavailable"
			}
		}
		c.JSON(status, httpdto.NewErrorResponse(msg, code))
	}
}
