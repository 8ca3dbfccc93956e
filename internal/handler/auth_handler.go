// Package handler provides HTTP handlers for API endpoints.
package handler

import (
	"net/http"
	"time"

	"messenger/internal/services"
	"messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication HTTP endpoints.
type AuthHandler struct {
	service *services.AuthService
	chats   *services.ChatService
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *services.AuthService, chats *services.ChatService) *AuthHandler {
	return &AuthHandler{service: service, chats: chats}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req httpdto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	u, err := h.service.Register(c.Request.Context(), services.RegisterInput{
		Login:    req.Login,
		Password: req.Password,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.issue(c, http.StatusCreated, u.Login)
}

// Login handles user authentication.
func (h *AuthHandler) Login(c *gin.Context) {
	var req httpdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	login, err := h.service.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issue(c, http.StatusOK, login)
}

// Logout ends the session and removes chats the user left unfinished.
// Tokens are stateless and stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}

	pruned, err := h.chats.PruneIncomplete(c.Request.Context(), login)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.LogoutResponse{PrunedChats: pruned}))
}

func (h *AuthHandler) issue(c *gin.Context, status int, login string) {
	tok, err := h.service.IssueToken(login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, httpdto.NewSuccessResponse(httpdto.AuthResponse{
		Login:       login,
		AccessToken: tok.AccessToken,
		SessionID:   tok.SessionID,
		ExpiresAt:   tok.ExpiresAt.UTC().Format(time.RFC3339),
	}))
}
