package handler

import (
	"net/http"
	"slices"

	"messenger/internal/domain/chat"
	"messenger/internal/services"
	"messenger/internal/transport/httpdto"
	messenger_errors "messenger/pkg/errors"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	service *services.ChatService
}

func NewChatHandler(service *services.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// List returns the chats the current user belongs to.
func (h *ChatHandler) List(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chats, err := h.service.ChatsOf(c.Request.Context(), login)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToChatDTOs(chats)))
}

// Start creates a chat with its members and first message.
func (h *ChatHandler) Start(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	var req httpdto.StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	created, first, err := h.service.StartChat(c.Request.Context(), services.StartChatInput{
		InitSender: login,
		Members:    req.Members,
		Text:       req.Text,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.StartChatResponse{
		Chat:         httpdto.ToChatDTO(created),
		FirstMessage: httpdto.ToMessageDTO(first),
	}))
}

func (h *ChatHandler) Delete(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteChat(c.Request.Context(), login, chatID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Members lists a chat's members in join order. Only members may look.
func (h *ChatHandler) Members(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	members, err := h.service.Members(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !slices.ContainsFunc(members, func(m chat.Membership) bool { return m.Member == login }) {
		respondError(c, messenger_errors.ErrNotAMember)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToChatMemberDTOs(members)))
}

func (h *ChatHandler) AddMember(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req httpdto.AddChatMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.service.AddMember(c.Request.Context(), login, chatID, req.Login); err != nil {
		respondError(c, err)
		return
	}
	h.respondChat(c, http.StatusCreated, chatID)
}

func (h *ChatHandler) RemoveMember(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.service.RemoveMember(c.Request.Context(), login, chatID, c.Param("login")); err != nil {
		respondError(c, err)
		return
	}
	h.respondChat(c, http.StatusOK, chatID)
}

func (h *ChatHandler) respondChat(c *gin.Context, status int, chatID int64) {
	updated, err := h.service.Get(c.Request.Context(), chatID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, httpdto.NewSuccessResponse(httpdto.ToChatDTO(updated)))
}
