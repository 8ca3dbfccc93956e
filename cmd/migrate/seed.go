package main

import (
	"context"
	"errors"
	"time"

	"messenger/config"
	"messenger/internal/domain/user"
	"messenger/internal/repository"
	"messenger/internal/services"
	messenger_errors "messenger/pkg/errors"
	"messenger/pkg/database"

	"gorm.io/gorm"
)

type seedResult struct {
	Skipped     bool
	Users       []string
	ListEntries int
	Chats       []int64
	Messages    int
}

var seedUsers = []services.RegisterInput{
	{Login: "alice", Phone: "+15550000001"},
	{Login: "bob", Phone: "+15550000002"},
	{Login: "carol"},
	{Login: "dave"},
}

type seedChat struct {
	initSender string
	members    []string
	messages   [][2]string // sender, text; the first one must come from initSender
}

var seedChats = []seedChat{
	{
		initSender: "alice",
		members:    []string{"bob"},
		messages: [][2]string{
			{"alice", "Hi Bob!"},
			{"bob", "Hey Alice, how are you?"},
			{"alice", "Great, thanks."},
		},
	},
	{
		initSender: "carol",
		members:    []string{"alice", "bob"},
		messages: [][2]string{
			{"carol", "Welcome to the group."},
			{"bob", "Glad to be here."},
		},
	},
}

// seedDevelopment registers the development users and fills their lists and
// chats through the services, so every write follows the normal rules. It does
// nothing when the first seed user already exists.
func seedDevelopment(db *gorm.DB, cfg *config.Config, password string) (*seedResult, error) {
	sqlDB, err := database.SQLDB(db)
	if err != nil {
		return nil, err
	}
	store := repository.NewStore(sqlDB)
	auth := services.NewAuthService(store, services.NoopLimiter{}, cfg)
	lists := services.NewListService(store)
	chats := services.NewChatService(store)
	messages := services.NewMessageService(store, cfg.MessagePageSize)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result := &seedResult{}
	for i, in := range seedUsers {
		in.Password = password
		if _, err := auth.Register(ctx, in); err != nil {
			if i == 0 && errors.Is(err, messenger_errors.ErrDuplicateLogin) {
				return &seedResult{Skipped: true}, nil
			}
			return nil, err
		}
		result.Users = append(result.Users, in.Login)
	}

	entries := []struct {
		kind          user.ListKind
		owner, target string
	}{
		{user.ListContact, "alice", "bob"},
		{user.ListContact, "alice", "carol"},
		{user.ListContact, "bob", "alice"},
		{user.ListBlock, "dave", "carol"},
	}
	for _, e := range entries {
		if err := lists.AddToList(ctx, e.kind, e.owner, e.target); err != nil {
			return nil, err
		}
		result.ListEntries++
	}

	for _, sc := range seedChats {
		c, _, err := chats.StartChat(ctx, services.StartChatInput{
			InitSender: sc.initSender,
			Members:    sc.members,
			Text:       sc.messages[0][1],
		})
		if err != nil {
			return nil, err
		}
		result.Chats = append(result.Chats, c.ChatID)
		result.Messages++
		for _, m := range sc.messages[1:] {
			if _, err := messages.PostMessage(ctx, c.ChatID, m[0], m[1]); err != nil {
				return nil, err
			}
			result.Messages++
		}
	}
	return result, nil
}
