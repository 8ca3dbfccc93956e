package chat

import "time"

// Type is chat.chat_type. A chat only ever moves from Private to Group.
type Type string

const (
	TypePrivate Type = "private"
	TypeGroup   Type = "group"
)

// PrivateMemberLimit is the member count a private chat may hold before it becomes a group.
const PrivateMemberLimit = 2

// Chat represents the chat table
type Chat struct {
	ChatID     int64
	Type       Type
	InitSender string
	// Completed is set once the chat has held two members and a message at
	// the same time. It is never cleared.
	Completed bool
}

// Membership represents the chat_list table
type Membership struct {
	ChatID   int64
	Member   string
	JoinedAt time.Time
}

// TypeFor returns the type a chat currently of type t must have once it holds
// memberCount members. Group is sticky.
func TypeFor(t Type, memberCount int) Type {
	if t == TypeGroup || memberCount > PrivateMemberLimit {
		return TypeGroup
	}
	return TypePrivate
}

// CanTransition reports whether a chat may change from one type to another.
func CanTransition(from, to Type) bool {
	return from == to || (from == TypePrivate && to == TypeGroup)
}

// Complete reports whether a chat with these counts leaves the transient
// creation state: at least two members and at least one message.
func Complete(memberCount, messageCount int) bool {
	return memberCount >= 2 && messageCount >= 1
}

// Successor picks the member that inherits init_sender when leaving is removed.
// Members are expected in join order; returns "" when no one else is left.
func Successor(members []Membership, leaving string) string {
	for _, m := range members {
		if m.Member != leaving {
			return m.Member
		}
	}
	return ""
}
