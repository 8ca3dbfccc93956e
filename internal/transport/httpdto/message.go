package httpdto

import (
	"time"

	"messenger/internal/domain/message"
)

// SendMessageRequest is used for POST /chats/:id/messages
type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// EditMessageRequest is used for PATCH /chats/:id/messages/:msgID
type EditMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// HistoryQuery holds query parameters for GET /chats/:id/messages
type HistoryQuery struct {
	Before string `form:"before"`
	Limit  int    `form:"limit"`
}

type MessageDTO struct {
	MsgID     int64     `json:"msg_id"`
	ChatID    int64     `json:"chat_id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryResponse carries one page, oldest first. Before is passed back to
// fetch the previous page and is empty at the start of the chat.
type HistoryResponse struct {
	Messages []MessageDTO `json:"messages"`
	Before   string       `json:"before,omitempty"`
}

func ToMessageDTO(m message.Message) MessageDTO {
	return MessageDTO{
		MsgID:     m.MsgID,
		ChatID:    m.ChatID,
		Sender:    m.SenderLogin,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}

func ToMessageDTOs(msgs []message.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ToMessageDTO(m))
	}
	return out
}
