package httpdto

import (
	"time"

	"messenger/internal/domain/chat"
)

// StartChatRequest is used for POST /chats
type StartChatRequest struct {
	Members []string `json:"members" binding:"required,min=1"`
	Text    string   `json:"text" binding:"required"`
}

// AddChatMemberRequest is used for POST /chats/:id/members
type AddChatMemberRequest struct {
	Login string `json:"login" binding:"required"`
}

type ChatDTO struct {
	ChatID     int64  `json:"chat_id"`
	Type       string `json:"type"`
	InitSender string `json:"init_sender"`
}

type ChatMemberDTO struct {
	Login    string    `json:"login"`
	JoinedAt time.Time `json:"joined_at"`
}

// StartChatResponse is returned after a chat is created with its first message
type StartChatResponse struct {
	Chat         ChatDTO    `json:"chat"`
	FirstMessage MessageDTO `json:"first_message"`
}

func ToChatDTO(c chat.Chat) ChatDTO {
	return ChatDTO{
		ChatID:     c.ChatID,
		Type:       string(c.Type),
		InitSender: c.InitSender,
	}
}

func ToChatDTOs(chats []chat.Chat) []ChatDTO {
	out := make([]ChatDTO, 0, len(chats))
	for _, c := range chats {
		out = append(out, ToChatDTO(c))
	}
	return out
}

func ToChatMemberDTOs(members []chat.Membership) []ChatMemberDTO {
	out := make([]ChatMemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, ChatMemberDTO{Login: m.Member, JoinedAt: m.JoinedAt})
	}
	return out
}
