package middleware

import (
	"context"
	"net/http"
	"strings"

	"messenger/internal/services"
	"messenger/internal/transport/httpdto"
	"messenger/pkg/logger"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(service *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c)
		claims, err := service.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
			c.Abort()
			return
		}

		ctx := services.WithLoginContext(c.Request.Context(), claims.Login, claims.SessionID)
		ctx = context.WithValue(ctx, logger.LoginKey, claims.Login)
		ctx = context.WithValue(ctx, logger.SessionIdKey, claims.SessionID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	value := c.GetHeader("Authorization")
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
