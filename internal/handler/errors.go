package handler

import (
	"strconv"

	"messenger/internal/services"
	messenger_errors "messenger/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError hands err to the error middleware, which renders the envelope.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func badRequest(c *gin.Context) {
	respondError(c, messenger_errors.ErrInvalidInput)
}

// currentLogin returns the login the auth middleware put on the request.
func currentLogin(c *gin.Context) (string, bool) {
	login, ok := services.LoginFromContext(c.Request.Context())
	if !ok {
		respondError(c, messenger_errors.ErrInvalidCredentials)
	}
	return login, ok
}

func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c)
		return 0, false
	}
	return id, true
}
