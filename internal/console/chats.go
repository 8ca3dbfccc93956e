package console

import (
	"context"
	"slices"
	"strings"
	"time"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/message"
	"messenger/internal/services"
)

const timeLayout = "2006-01-02 15:04:05"

func (s *Session) newChat(ctx context.Context) error {
	line, err := s.prompt("\tEnter logins of the other members, separated by commas: ")
	if err != nil {
		return err
	}
	text, err := s.prompt("\tEnter the first message: ")
	if err != nil {
		return err
	}

	var members []string
	for _, m := range strings.Split(line, ",") {
		if m = strings.TrimSpace(m); m != "" {
			members = append(members, m)
		}
	}

	c, _, err := s.svc.Chats.StartChat(ctx, services.StartChatInput{
		InitSender: s.user,
		Members:    members,
		Text:       text,
	})
	if err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("Chat %d created (%s).\n", c.ChatID, c.Type)
	return nil
}

func (s *Session) newMessage(ctx context.Context) error {
	chatID, ok, err := s.readID("\tEnter chat id: ")
	if err != nil || !ok {
		return err
	}
	return s.writeMessage(ctx, chatID)
}

func (s *Session) writeMessage(ctx context.Context, chatID int64) error {
	text, err := s.prompt("\tEnter message text: ")
	if err != nil {
		return err
	}
	m, err := s.svc.Messages.PostMessage(ctx, chatID, s.user, text)
	if err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("Message %d sent.\n", m.MsgID)
	return nil
}

func (s *Session) browseChats(ctx context.Context) error {
	chats, err := s.svc.Chats.ChatsOf(ctx, s.user)
	if err != nil {
		s.report(ctx, err)
		return nil
	}
	if len(chats) == 0 {
		s.printf("You have no chats.\n")
		return nil
	}
	for _, c := range chats {
		s.printf("Chat %d\t%s\tstarted by %s\n", c.ChatID, c.Type, c.InitSender)
	}

	chatID, ok, err := s.readID("\tEnter a chat id to open it: ")
	if err != nil || !ok {
		return err
	}
	if !slices.ContainsFunc(chats, func(c chat.Chat) bool { return c.ChatID == chatID }) {
		s.printf("You are not a member of that chat.\n")
		return nil
	}
	return s.chatMenu(ctx, chatID)
}

func (s *Session) chatMenu(ctx context.Context, chatID int64) error {
	for {
		s.printf("CHAT %d\n", chatID)
		s.printf("---------\n")
		s.printf("1. Show messages\n")
		s.printf("2. Write a message\n")
		s.printf("3. Edit a message\n")
		s.printf("4. Delete a message\n")
		s.printf("5. Show members\n")
		s.printf("6. Add a member\n")
		s.printf("7. Remove a member\n")
		s.printf("8. Delete chat\n")
		s.printf("10. Show full history\n")
		s.printf("9. < Back\n")

		choice, err := s.readChoice()
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			err = s.showMessages(ctx, chatID)
		case 2:
			err = s.writeMessage(ctx, chatID)
		case 3:
			err = s.editMessage(ctx, chatID)
		case 4:
			err = s.deleteMessage(ctx, chatID)
		case 5:
			s.showMembers(ctx, chatID)
		case 6:
			err = s.addMember(ctx, chatID)
		case 7:
			var left bool
			left, err = s.removeMember(ctx, chatID)
			if err == nil && left {
				return nil
			}
		case 8:
			if s.deleteChat(ctx, chatID) {
				return nil
			}
		case 10:
			s.fullHistory(ctx, chatID)
		case 9:
			return nil
		default:
			s.printf("Unrecognized choice!\n")
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) printMessage(m message.Message) {
	s.printf("[%s] #%d %s: %s\n", m.Timestamp.Local().Format(timeLayout), m.MsgID, m.SenderLogin, m.Text)
}

// showMessages pages backwards through the history, newest page first.
func (s *Session) showMessages(ctx context.Context, chatID int64) error {
	var before *message.Cursor
	for {
		page, err := s.svc.Messages.History(ctx, s.user, chatID, before, 0)
		if err != nil {
			s.report(ctx, err)
			return nil
		}
		if len(page.Messages) == 0 {
			s.printf("No messages.\n")
			return nil
		}
		for _, m := range page.Messages {
			s.printMessage(m)
		}
		if page.Before == nil {
			return nil
		}

		s.printf("1. Older messages\n")
		s.printf("9. < Back\n")
		choice, err := s.readChoice()
		if err != nil {
			return err
		}
		if choice != 1 {
			return nil
		}
		before = page.Before
	}
}

func (s *Session) fullHistory(ctx context.Context, chatID int64) {
	count := 0
	for m, err := range s.svc.Messages.ListMessages(ctx, chatID) {
		if err != nil {
			s.report(ctx, err)
			return
		}
		s.printMessage(m)
		count++
	}
	s.printf("%d message(s).\n", count)
}

func (s *Session) editMessage(ctx context.Context, chatID int64) error {
	msgID, ok, err := s.readID("\tEnter message id: ")
	if err != nil || !ok {
		return err
	}
	text, err := s.prompt("\tEnter the new text: ")
	if err != nil {
		return err
	}
	if err := s.svc.Messages.EditMessage(ctx, chatID, msgID, text, s.user); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("Message %d edited.\n", msgID)
	return nil
}

func (s *Session) deleteMessage(ctx context.Context, chatID int64) error {
	msgID, ok, err := s.readID("\tEnter message id: ")
	if err != nil || !ok {
		return err
	}
	if err := s.svc.Messages.DeleteMessage(ctx, chatID, msgID, s.user); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("Message %d deleted.\n", msgID)
	return nil
}

func (s *Session) showMembers(ctx context.Context, chatID int64) {
	members, err := s.svc.Chats.Members(ctx, chatID)
	if err != nil {
		s.report(ctx, err)
		return
	}
	for i, m := range members {
		s.printf("%d. %s (joined %s)\n", i+1, m.Member, m.JoinedAt.Local().Format(time.DateOnly))
	}
}

func (s *Session) addMember(ctx context.Context, chatID int64) error {
	login, err := s.prompt("\tEnter login of user to add: ")
	if err != nil {
		return err
	}
	if err := s.svc.Chats.AddMember(ctx, s.user, chatID, login); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.printf("%s added to chat %d.\n", login, chatID)
	return nil
}

// removeMember reports whether the current user removed themselves.
func (s *Session) removeMember(ctx context.Context, chatID int64) (bool, error) {
	login, err := s.prompt("\tEnter login of user to remove: ")
	if err != nil {
		return false, err
	}
	if err := s.svc.Chats.RemoveMember(ctx, s.user, chatID, login); err != nil {
		s.report(ctx, err)
		return false, nil
	}
	s.printf("%s removed from chat %d.\n", login, chatID)
	return login == s.user, nil
}

func (s *Session) deleteChat(ctx context.Context, chatID int64) bool {
	if err := s.svc.Chats.DeleteChat(ctx, s.user, chatID); err != nil {
		s.report(ctx, err)
		return false
	}
	s.printf("Chat %d deleted.\n", chatID)
	return true
}
