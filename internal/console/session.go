// Package console runs the interactive menu session over any reader and writer.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"messenger/internal/services"
	messenger_errors "messenger/pkg/errors"
	"messenger/pkg/logger"

	"go.uber.org/zap"
)

// errQuit ends the session when input runs out.
var errQuit = errors.New("input closed")

type Services struct {
	Auth     *services.AuthService
	Lists    *services.ListService
	Chats    *services.ChatService
	Messages *services.MessageService
	Accounts *services.AccountService
}

type Session struct {
	in     *bufio.Scanner
	out    io.Writer
	svc    Services
	logger *logger.Logger

	user string
}

func New(in io.Reader, out io.Writer, svc Services, l *logger.Logger) *Session {
	if l == nil {
		l = logger.NewNop()
	}
	return &Session{in: bufio.NewScanner(in), out: out, svc: svc, logger: l}
}

// Run shows the main menu until the user exits or input stops. A logged-in
// user is logged out on the way out, read errors included, so unfinished chats
// are pruned.
func (s *Session) Run(ctx context.Context) error {
	s.greeting()
	defer s.printf("Bye !\n")

	for {
		if err := ctx.Err(); err != nil {
			s.logout(ctx)
			return err
		}
		var err error
		if s.user == "" {
			err = s.mainMenu(ctx)
		} else {
			err = s.userMenu(ctx)
		}
		if err != nil {
			s.logout(ctx)
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

func (s *Session) greeting() {
	s.printf("\n\n*******************************************************\n")
	s.printf("              User Interface                          \n")
	s.printf("*******************************************************\n\n")
}

func (s *Session) mainMenu(ctx context.Context) error {
	s.printf("MAIN MENU\n")
	s.printf("---------\n")
	s.printf("1. Create user\n")
	s.printf("2. Log in\n")
	s.printf("9. < EXIT\n")

	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return s.createUser(ctx)
	case 2:
		return s.logIn(ctx)
	case 9:
		return errQuit
	default:
		s.printf("Unrecognized choice!\n")
	}
	return nil
}

func (s *Session) userMenu(ctx context.Context) error {
	s.printf("MAIN MENU\n")
	s.printf("---------\n")
	s.printf("1. Add to contact list\n")
	s.printf("2. Browse contact list\n")
	s.printf("3. Write a new message\n")
	s.printf("4. Browse blocked list\n")
	s.printf("5. Browse current chats\n")
	s.printf("6. Create a new chat\n")
	s.printf("7. Add to blocked list\n")
	s.printf("8. Delete Account\n")
	s.printf(".........................\n")
	s.printf("9. Log out\n")

	choice, err := s.readChoice()
	if err != nil {
		return err
	}
	switch choice {
	case 1:
		return s.addToList(ctx, listContact)
	case 2:
		return s.browseList(ctx, listContact)
	case 3:
		return s.newMessage(ctx)
	case 4:
		return s.browseList(ctx, listBlock)
	case 5:
		return s.browseChats(ctx)
	case 6:
		return s.newChat(ctx)
	case 7:
		return s.addToList(ctx, listBlock)
	case 8:
		return s.deleteAccount(ctx)
	case 9:
		s.logout(ctx)
	default:
		s.printf("Unrecognized choice!\n")
	}
	return nil
}

func (s *Session) createUser(ctx context.Context) error {
	login, err := s.prompt("\tEnter user login: ")
	if err != nil {
		return err
	}
	password, err := s.prompt("\tEnter user password: ")
	if err != nil {
		return err
	}
	phone, err := s.prompt("\tEnter user phone: ")
	if err != nil {
		return err
	}

	if _, err := s.svc.Auth.Register(ctx, services.RegisterInput{Login: login, Password: password, Phone: phone}); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.logger.Info(ctx, "user registered", zap.String("login", login))
	s.printf("User successfully created!\n")
	return nil
}

func (s *Session) logIn(ctx context.Context) error {
	login, err := s.prompt("\tEnter user login: ")
	if err != nil {
		return err
	}
	password, err := s.prompt("\tEnter user password: ")
	if err != nil {
		return err
	}

	authed, err := s.svc.Auth.Authenticate(ctx, login, password)
	if err != nil {
		s.report(ctx, err)
		return nil
	}
	s.user = authed
	s.logger.Info(s.ctx(ctx), "logged in")
	return nil
}

// logout prunes the user's unfinished chats and clears the session. It is a
// no-op when nobody is logged in.
func (s *Session) logout(ctx context.Context) {
	if s.user == "" {
		return
	}
	pruned, err := s.svc.Chats.PruneIncomplete(context.WithoutCancel(ctx), s.user)
	if err != nil {
		s.report(ctx, err)
	} else if pruned > 0 {
		s.logger.Info(s.ctx(ctx), "pruned incomplete chats", zap.Int("count", pruned))
	}
	s.logger.Info(s.ctx(ctx), "logged out")
	s.user = ""
}

func (s *Session) deleteAccount(ctx context.Context) error {
	answer, err := s.prompt("\tType your login to confirm account deletion: ")
	if err != nil {
		return err
	}
	if answer != s.user {
		s.printf("Account deletion cancelled.\n")
		return nil
	}
	if err := s.svc.Accounts.DeleteAccount(ctx, s.user); err != nil {
		s.report(ctx, err)
		return nil
	}
	s.logger.Info(s.ctx(ctx), "account deleted")
	s.printf("Account deleted.\n")
	s.user = ""
	return nil
}

// ctx decorates ctx with the session login for log lines.
func (s *Session) ctx(ctx context.Context) context.Context {
	if s.user == "" {
		return ctx
	}
	return context.WithValue(ctx, logger.LoginKey, s.user)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// prompt prints label and returns the next input line without surrounding spaces.
func (s *Session) prompt(label string) (string, error) {
	s.printf("%s", label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", errQuit
	}
	return strings.TrimSpace(s.in.Text()), nil
}

func (s *Session) readChoice() (int, error) {
	for {
		line, err := s.prompt("Please make your choice: ")
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(line)
		if err == nil {
			return n, nil
		}
		s.printf("Your input is invalid!\n")
	}
}

func (s *Session) readID(label string) (int64, bool, error) {
	line, err := s.prompt(label)
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(line, 10, 64)
	if err != nil || id <= 0 {
		s.printf("Your input is invalid!\n")
		return 0, false, nil
	}
	return id, true, nil
}

// report prints a user-facing line for err. Storage failures are logged and
// shown generically; the session carries on either way.
func (s *Session) report(ctx context.Context, err error) {
	if messenger_errors.IsInfrastructure(err) || messenger_errors.Code(err) == "INTERNAL_ERROR" {
		s.logger.Error(s.ctx(ctx), "operation failed", zap.Error(err))
		s.printf("Something went wrong, please try again.\n")
		return
	}
	s.printf("%s\n", userMessage(err))
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, messenger_errors.ErrDuplicateLogin):
		return "That login is already taken."
	case errors.Is(err, messenger_errors.ErrInvalidCredentials):
		return "Invalid login or password."
	case errors.Is(err, messenger_errors.ErrRateLimited):
		return "Too many attempts, try again later."
	case errors.Is(err, messenger_errors.ErrUnknownUser):
		return "No such user."
	case errors.Is(err, messenger_errors.ErrDuplicateMembership):
		return "Already on the list."
	case errors.Is(err, messenger_errors.ErrNotAMember):
		return "You are not a member of that chat."
	case errors.Is(err, messenger_errors.ErrNotFound):
		return "Not found."
	case errors.Is(err, messenger_errors.ErrNotAuthor):
		return "Only the author can change that message."
	case errors.Is(err, messenger_errors.ErrLastMemberRemoval):
		return "The last member cannot leave; delete the chat instead."
	case errors.Is(err, messenger_errors.ErrForbidden):
		return "Only the chat's initiator can do that."
	case errors.Is(err, messenger_errors.ErrInvalidInput):
		return "Your input is invalid!"
	}
	return err.Error()
}
