package handler

import (
	"net/http"

	"messenger/internal/domain/message"
	"messenger/internal/services"
	"messenger/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// History returns one page of the chat, newest page first; pass the returned
// "before" cursor to go further back.
func (h *MessageHandler) History(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var q httpdto.HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c)
		return
	}
	var before *message.Cursor
	if q.Before != "" {
		cur, err := message.ParseCursor(q.Before)
		if err != nil {
			badRequest(c)
			return
		}
		before = &cur
	}

	page, err := h.service.History(c.Request.Context(), login, chatID, before, q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	res := httpdto.HistoryResponse{Messages: httpdto.ToMessageDTOs(page.Messages)}
	if page.Before != nil {
		res.Before = page.Before.String()
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(res))
}

func (h *MessageHandler) Send(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	m, err := h.service.PostMessage(c.Request.Context(), chatID, login, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToMessageDTO(m)))
}

func (h *MessageHandler) Edit(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	msgID, ok := int64Param(c, "msgID")
	if !ok {
		return
	}
	var req httpdto.EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.service.EditMessage(c.Request.Context(), chatID, msgID, req.Text, login); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"msg_id": msgID, "text": req.Text}))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	login, ok := currentLogin(c)
	if !ok {
		return
	}
	chatID, ok := int64Param(c, "id")
	if !ok {
		return
	}
	msgID, ok := int64Param(c, "msgID")
	if !ok {
		return
	}
	if err := h.service.DeleteMessage(c.Request.Context(), chatID, msgID, login); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
