package services

import (
	"context"
	"errors"
	"iter"
	"strings"
	"time"
	"unicode/utf8"

	"messenger/internal/domain/message"
	"messenger/internal/repository"
	messenger_errors "messenger/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type MessageService struct {
	store    repository.Store
	pageSize int
	now      func() time.Time
}

func NewMessageService(store repository.Store, pageSize int) *MessageService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &MessageService{store: store, pageSize: pageSize, now: dbNow}
}

// HistoryPage is one window of a chat's history, oldest first. Before is the
// cursor for the next earlier window, nil once the start is reached.
type HistoryPage struct {
	Messages []message.Message
	Before   *message.Cursor
}

// PostMessage appends a message from sender. The timestamp never goes below
// the chat's latest one, so history order matches insertion order.
func (s *MessageService) PostMessage(ctx context.Context, chatID int64, sender, text string) (message.Message, error) {
	if err := validateText(text); err != nil {
		return message.Message{}, err
	}
	var m message.Message
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		m, err = postMessage(ctx, tx, chatID, sender, text, s.now())
		return err
	})
	return m, err
}

func (s *MessageService) EditMessage(ctx context.Context, chatID, msgID int64, newText, requester string) error {
	if err := validateText(newText); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := authorize(ctx, tx, chatID, msgID, requester); err != nil {
			return err
		}
		return tx.Messages().UpdateText(ctx, msgID, newText)
	})
}

func (s *MessageService) DeleteMessage(ctx context.Context, chatID, msgID int64, requester string) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := authorize(ctx, tx, chatID, msgID, requester); err != nil {
			return err
		}
		return tx.Messages().Delete(ctx, msgID)
	})
}

// ListMessages yields the chat's messages oldest first, fetching one page at a
// time. Each range over the result starts again from the beginning.
func (s *MessageService) ListMessages(ctx context.Context, chatID int64) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if _, err := s.store.Chats().GetByID(ctx, chatID); err != nil {
			yield(message.Message{}, err)
			return
		}
		var after *message.Cursor
		for {
			page, err := s.store.Messages().Page(ctx, chatID, after, s.pageSize)
			if err != nil {
				yield(message.Message{}, err)
				return
			}
			for _, m := range page {
				if !yield(m, nil) {
					return
				}
			}
			if len(page) < s.pageSize {
				return
			}
			cur := page[len(page)-1].Cursor()
			after = &cur
		}
	}
}

// History returns up to limit messages older than before (the newest ones when
// before is nil). Only members may read a chat's history.
func (s *MessageService) History(ctx context.Context, viewer string, chatID int64, before *message.Cursor, limit int) (HistoryPage, error) {
	if limit <= 0 {
		limit = s.pageSize
	}
	limit = min(limit, maxPageSize)

	if _, err := s.store.Chats().GetByID(ctx, chatID); err != nil {
		return HistoryPage{}, err
	}
	member, err := s.store.Chats().IsMember(ctx, chatID, viewer)
	if err != nil {
		return HistoryPage{}, err
	}
	if !member {
		return HistoryPage{}, messenger_errors.ErrNotAMember
	}

	msgs, err := s.store.Messages().PageBefore(ctx, chatID, before, limit)
	if err != nil {
		return HistoryPage{}, err
	}
	page := HistoryPage{Messages: msgs}
	if len(msgs) == limit {
		cur := msgs[0].Cursor()
		page.Before = &cur
	}
	return page, nil
}

func postMessage(ctx context.Context, tx repository.Store, chatID int64, sender, text string, now time.Time) (message.Message, error) {
	c, err := tx.Chats().LockByID(ctx, chatID)
	if err != nil {
		return message.Message{}, err
	}
	member, err := tx.Chats().IsMember(ctx, chatID, sender)
	if err != nil {
		return message.Message{}, err
	}
	if !member {
		return message.Message{}, messenger_errors.ErrNotAMember
	}

	var latest time.Time
	last, err := tx.Messages().Latest(ctx, chatID)
	switch {
	case err == nil:
		latest = last.Timestamp
	case !errors.Is(err, messenger_errors.ErrNotFound):
		return message.Message{}, err
	}

	m := message.Message{
		ChatID:      chatID,
		SenderLogin: sender,
		Text:        text,
		Timestamp:   message.NextTimestamp(now, latest),
	}
	if err := tx.Messages().Create(ctx, &m); err != nil {
		return message.Message{}, err
	}
	if err := markIfComplete(ctx, tx, c); err != nil {
		return message.Message{}, err
	}
	return m, nil
}

func authorize(ctx context.Context, tx repository.Store, chatID, msgID int64, requester string) error {
	m, err := tx.Messages().GetByID(ctx, chatID, msgID)
	if err != nil {
		return err
	}
	if m.SenderLogin != requester {
		return messenger_errors.ErrNotAuthor
	}
	return nil
}

func validateText(text string) error {
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) > message.MaxTextLength {
		return messenger_errors.ErrInvalidInput
	}
	return nil
}

// dbNow matches the microsecond precision of TIMESTAMPTZ columns.
func dbNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
