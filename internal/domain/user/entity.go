package user

import (
	"database/sql"
	"time"
)

// MaxLoginLength matches usr.login VARCHAR(50).
const MaxLoginLength = 50

// ListKind is user_list.list_type.
type ListKind string

const (
	ListContact ListKind = "contact"
	ListBlock   ListKind = "block"
)

func (k ListKind) Valid() bool {
	return k == ListContact || k == ListBlock
}

// ParseListKind accepts the stored value or its plural form ("contacts", "blocked").
func ParseListKind(s string) (ListKind, bool) {
	switch s {
	case "contact", "contacts":
		return ListContact, true
	case "block", "blocked", "blocks":
		return ListBlock, true
	}
	return "", false
}

// User represents the usr table
type User struct {
	Login        string
	PasswordHash string
	Phone        sql.NullString
	Status       sql.NullString
	BlockList    int64
	ContactList  int64
}

// ListID returns the id of the user's list of the given kind.
func (u User) ListID(kind ListKind) int64 {
	if kind == ListBlock {
		return u.BlockList
	}
	return u.ContactList
}

// UserList represents the user_list table
type UserList struct {
	ListID int64
	Kind   ListKind
}

// ListMembership represents user_list_contains
type ListMembership struct {
	ListID  int64
	Member  string
	AddedAt time.Time
}
