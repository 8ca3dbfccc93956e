package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"messenger/internal/domain/chat"
	"messenger/internal/domain/message"
	"messenger/internal/domain/user"
	messenger_errors "messenger/pkg/errors"
)

// memState mirrors the six tables. Foreign keys are checked on write and on
// delete the way PostgreSQL would, so statement ordering mistakes surface as
// ErrStatement here too.
type memState struct {
	users       map[string]user.User
	lists       map[int64]user.ListKind
	listMembers map[int64][]user.ListMembership
	chats       map[int64]chat.Chat
	chatMembers map[int64][]chat.Membership
	messages    map[int64]message.Message

	nextListID int64
	nextChatID int64
	nextMsgID  int64
}

func newMemState() *memState {
	return &memState{
		users:       map[string]user.User{},
		lists:       map[int64]user.ListKind{},
		listMembers: map[int64][]user.ListMembership{},
		chats:       map[int64]chat.Chat{},
		chatMembers: map[int64][]chat.Membership{},
		messages:    map[int64]message.Message{},
	}
}

func (st *memState) clone() *memState {
	c := &memState{
		users:       make(map[string]user.User, len(st.users)),
		lists:       make(map[int64]user.ListKind, len(st.lists)),
		listMembers: make(map[int64][]user.ListMembership, len(st.listMembers)),
		chats:       make(map[int64]chat.Chat, len(st.chats)),
		chatMembers: make(map[int64][]chat.Membership, len(st.chatMembers)),
		messages:    make(map[int64]message.Message, len(st.messages)),
		nextListID:  st.nextListID,
		nextChatID:  st.nextChatID,
		nextMsgID:   st.nextMsgID,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.lists {
		c.lists[k] = v
	}
	for k, v := range st.listMembers {
		c.listMembers[k] = slices.Clone(v)
	}
	for k, v := range st.chats {
		c.chats[k] = v
	}
	for k, v := range st.chatMembers {
		c.chatMembers[k] = slices.Clone(v)
	}
	for k, v := range st.messages {
		c.messages[k] = v
	}
	return c
}

func fkError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: foreign key violation: %s", messenger_errors.ErrStatement, fmt.Sprintf(format, args...))
}

type memoryRoot struct {
	mu    sync.Mutex
	state *memState
	last  time.Time
}

// now returns a strictly increasing clock reading. Caller holds mu.
func (r *memoryRoot) now() time.Time {
	t := time.Now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t
	return t
}

// MemoryStore is a Store kept in process memory. Transactions work on a
// private copy of every table that replaces the shared state on commit.
type MemoryStore struct {
	root *memoryRoot
	tx   *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{root: &memoryRoot{state: newMemState()}}
}

func (s *MemoryStore) Users() UserRepository       { return memUsers{s} }
func (s *MemoryStore) Lists() ListRepository       { return memLists{s} }
func (s *MemoryStore) Chats() ChatRepository       { return memChats{s} }
func (s *MemoryStore) Messages() MessageRepository { return memMessages{s} }

func (s *MemoryStore) WithTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w: %w", messenger_errors.ErrConnection, err)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()

	snapshot := s.root.state.clone()
	if err := fn(&MemoryStore{root: s.root, tx: snapshot}); err != nil {
		return err
	}
	s.root.state = snapshot
	return nil
}

func (s *MemoryStore) do(ctx context.Context, fn func(st *memState) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", messenger_errors.ErrConnection, err)
	}
	if s.tx != nil {
		return fn(s.tx)
	}
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	return fn(s.root.state)
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, u *user.User) error {
	return r.s.do(ctx, func(st *memState) error {
		if _, ok := st.users[u.Login]; ok {
			return messenger_errors.ErrDuplicateLogin
		}
		if u.BlockList == u.ContactList {
			return fmt.Errorf("%w: check violation: block_list equals contact_list", messenger_errors.ErrStatement)
		}
		for _, id := range []int64{u.BlockList, u.ContactList} {
			if _, ok := st.lists[id]; !ok {
				return fkError("user_list %d", id)
			}
			for _, other := range st.users {
				if other.BlockList == id || other.ContactList == id {
					return fmt.Errorf("%w: unique violation: list %d already owned", messenger_errors.ErrStatement, id)
				}
			}
		}
		st.users[u.Login] = *u
		return nil
	})
}

func (r memUsers) GetByLogin(ctx context.Context, login string) (user.User, error) {
	var u user.User
	err := r.s.do(ctx, func(st *memState) error {
		found, ok := st.users[login]
		if !ok {
			return messenger_errors.ErrNotFound
		}
		u = found
		return nil
	})
	return u, err
}

func (r memUsers) Exists(ctx context.Context, login string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *memState) error {
		_, ok = st.users[login]
		return nil
	})
	return ok, err
}

func (r memUsers) ExistingLogins(ctx context.Context, logins []string) (map[string]bool, error) {
	found := make(map[string]bool, len(logins))
	err := r.s.do(ctx, func(st *memState) error {
		for _, l := range logins {
			if _, ok := st.users[l]; ok {
				found[l] = true
			}
		}
		return nil
	})
	return found, err
}

func (r memUsers) UpdateStatus(ctx context.Context, login, status string) error {
	return r.s.do(ctx, func(st *memState) error {
		u, ok := st.users[login]
		if !ok {
			return messenger_errors.ErrNotFound
		}
		u.Status.String, u.Status.Valid = status, status != ""
		st.users[login] = u
		return nil
	})
}

func (r memUsers) Delete(ctx context.Context, login string) error {
	return r.s.do(ctx, func(st *memState) error {
		if _, ok := st.users[login]; !ok {
			return messenger_errors.ErrNotFound
		}
		for listID, members := range st.listMembers {
			for _, m := range members {
				if m.Member == login {
					return fkError("usr %q referenced by user_list_contains %d", login, listID)
				}
			}
		}
		for chatID, members := range st.chatMembers {
			for _, m := range members {
				if m.Member == login {
					return fkError("usr %q referenced by chat_list %d", login, chatID)
				}
			}
		}
		for _, c := range st.chats {
			if c.InitSender == login {
				return fkError("usr %q referenced by chat %d", login, c.ChatID)
			}
		}
		for _, m := range st.messages {
			if m.SenderLogin == login {
				return fkError("usr %q referenced by message %d", login, m.MsgID)
			}
		}
		delete(st.users, login)
		return nil
	})
}

type memLists struct{ s *MemoryStore }

func (r memLists) CreateList(ctx context.Context, kind user.ListKind) (int64, error) {
	var id int64
	err := r.s.do(ctx, func(st *memState) error {
		if !kind.Valid() {
			return fmt.Errorf("%w: check violation: list_type %q", messenger_errors.ErrStatement, kind)
		}
		st.nextListID++
		id = st.nextListID
		st.lists[id] = kind
		return nil
	})
	return id, err
}

func (r memLists) DeleteList(ctx context.Context, listID int64) error {
	return r.s.do(ctx, func(st *memState) error {
		if len(st.listMembers[listID]) > 0 {
			return fkError("user_list %d referenced by user_list_contains", listID)
		}
		for _, u := range st.users {
			if u.BlockList == listID || u.ContactList == listID {
				return fkError("user_list %d referenced by usr %q", listID, u.Login)
			}
		}
		delete(st.lists, listID)
		delete(st.listMembers, listID)
		return nil
	})
}

func (r memLists) AddMember(ctx context.Context, listID int64, member string) error {
	return r.s.do(ctx, func(st *memState) error {
		for _, m := range st.listMembers[listID] {
			if m.Member == member {
				return messenger_errors.ErrDuplicateMembership
			}
		}
		if _, ok := st.users[member]; !ok {
			return messenger_errors.ErrUnknownUser
		}
		if _, ok := st.lists[listID]; !ok {
			return fkError("user_list %d", listID)
		}
		st.listMembers[listID] = append(st.listMembers[listID], user.ListMembership{
			ListID:  listID,
			Member:  member,
			AddedAt: r.s.root.now(),
		})
		return nil
	})
}

func (r memLists) RemoveMember(ctx context.Context, listID int64, member string) (bool, error) {
	var removed bool
	err := r.s.do(ctx, func(st *memState) error {
		members := st.listMembers[listID]
		i := slices.IndexFunc(members, func(m user.ListMembership) bool { return m.Member == member })
		if i < 0 {
			return nil
		}
		st.listMembers[listID] = slices.Delete(members, i, i+1)
		removed = true
		return nil
	})
	return removed, err
}

func (r memLists) Members(ctx context.Context, listID int64) ([]user.ListMembership, error) {
	var out []user.ListMembership
	err := r.s.do(ctx, func(st *memState) error {
		out = slices.Clone(st.listMembers[listID])
		return nil
	})
	return out, err
}

func (r memLists) IsMember(ctx context.Context, listID int64, member string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *memState) error {
		ok = slices.ContainsFunc(st.listMembers[listID], func(m user.ListMembership) bool { return m.Member == member })
		return nil
	})
	return ok, err
}

func (r memLists) DeleteMembersOfList(ctx context.Context, listID int64) error {
	return r.s.do(ctx, func(st *memState) error {
		delete(st.listMembers, listID)
		return nil
	})
}

func (r memLists) DeleteMemberships(ctx context.Context, member string) error {
	return r.s.do(ctx, func(st *memState) error {
		for id, members := range st.listMembers {
			st.listMembers[id] = slices.DeleteFunc(members, func(m user.ListMembership) bool { return m.Member == member })
		}
		return nil
	})
}

type memChats struct{ s *MemoryStore }

func (r memChats) Create(ctx context.Context, c *chat.Chat) error {
	return r.s.do(ctx, func(st *memState) error {
		if _, ok := st.users[c.InitSender]; !ok {
			return messenger_errors.ErrUnknownUser
		}
		st.nextChatID++
		c.ChatID = st.nextChatID
		st.chats[c.ChatID] = *c
		return nil
	})
}

func (r memChats) GetByID(ctx context.Context, chatID int64) (chat.Chat, error) {
	var c chat.Chat
	err := r.s.do(ctx, func(st *memState) error {
		found, ok := st.chats[chatID]
		if !ok {
			return messenger_errors.ErrNotFound
		}
		c = found
		return nil
	})
	return c, err
}

// LockByID needs no extra locking: transactions already hold the store mutex.
func (r memChats) LockByID(ctx context.Context, chatID int64) (chat.Chat, error) {
	return r.GetByID(ctx, chatID)
}

func (r memChats) modify(ctx context.Context, chatID int64, fn func(c *chat.Chat)) error {
	return r.s.do(ctx, func(st *memState) error {
		c, ok := st.chats[chatID]
		if !ok {
			return messenger_errors.ErrNotFound
		}
		fn(&c)
		st.chats[chatID] = c
		return nil
	})
}

func (r memChats) UpdateType(ctx context.Context, chatID int64, t chat.Type) error {
	return r.modify(ctx, chatID, func(c *chat.Chat) { c.Type = t })
}

func (r memChats) UpdateInitSender(ctx context.Context, chatID int64, login string) error {
	return r.modify(ctx, chatID, func(c *chat.Chat) { c.InitSender = login })
}

func (r memChats) MarkCompleted(ctx context.Context, chatID int64) error {
	return r.modify(ctx, chatID, func(c *chat.Chat) { c.Completed = true })
}

func (r memChats) Delete(ctx context.Context, chatID int64) error {
	return r.s.do(ctx, func(st *memState) error {
		if _, ok := st.chats[chatID]; !ok {
			return messenger_errors.ErrNotFound
		}
		if len(st.chatMembers[chatID]) > 0 {
			return fkError("chat %d referenced by chat_list", chatID)
		}
		for _, m := range st.messages {
			if m.ChatID == chatID {
				return fkError("chat %d referenced by message %d", chatID, m.MsgID)
			}
		}
		delete(st.chats, chatID)
		delete(st.chatMembers, chatID)
		return nil
	})
}

func (r memChats) AddMember(ctx context.Context, chatID int64, member string) error {
	return r.s.do(ctx, func(st *memState) error {
		for _, m := range st.chatMembers[chatID] {
			if m.Member == member {
				return messenger_errors.ErrDuplicateMembership
			}
		}
		if _, ok := st.users[member]; !ok {
			return messenger_errors.ErrUnknownUser
		}
		if _, ok := st.chats[chatID]; !ok {
			return fkError("chat %d", chatID)
		}
		st.chatMembers[chatID] = append(st.chatMembers[chatID], chat.Membership{
			ChatID:   chatID,
			Member:   member,
			JoinedAt: r.s.root.now(),
		})
		return nil
	})
}

func (r memChats) RemoveMember(ctx context.Context, chatID int64, member string) (bool, error) {
	var removed bool
	err := r.s.do(ctx, func(st *memState) error {
		members := st.chatMembers[chatID]
		i := slices.IndexFunc(members, func(m chat.Membership) bool { return m.Member == member })
		if i < 0 {
			return nil
		}
		st.chatMembers[chatID] = slices.Delete(members, i, i+1)
		removed = true
		return nil
	})
	return removed, err
}

func (r memChats) Members(ctx context.Context, chatID int64) ([]chat.Membership, error) {
	var out []chat.Membership
	err := r.s.do(ctx, func(st *memState) error {
		out = slices.Clone(st.chatMembers[chatID])
		return nil
	})
	return out, err
}

func (r memChats) IsMember(ctx context.Context, chatID int64, member string) (bool, error) {
	var ok bool
	err := r.s.do(ctx, func(st *memState) error {
		ok = slices.ContainsFunc(st.chatMembers[chatID], func(m chat.Membership) bool { return m.Member == member })
		return nil
	})
	return ok, err
}

func (r memChats) CountMembers(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.s.do(ctx, func(st *memState) error {
		n = len(st.chatMembers[chatID])
		return nil
	})
	return n, err
}

func (r memChats) DeleteMembers(ctx context.Context, chatID int64) error {
	return r.s.do(ctx, func(st *memState) error {
		delete(st.chatMembers, chatID)
		return nil
	})
}

func (r memChats) DeleteMembershipsOf(ctx context.Context, member string) error {
	return r.s.do(ctx, func(st *memState) error {
		for id, members := range st.chatMembers {
			st.chatMembers[id] = slices.DeleteFunc(members, func(m chat.Membership) bool { return m.Member == member })
		}
		return nil
	})
}

func (r memChats) ChatsOf(ctx context.Context, member string) ([]chat.Chat, error) {
	return r.collect(ctx, func(st *memState, c chat.Chat) bool {
		return slices.ContainsFunc(st.chatMembers[c.ChatID], func(m chat.Membership) bool { return m.Member == member })
	})
}

func (r memChats) InitiatedBy(ctx context.Context, login string) ([]chat.Chat, error) {
	return r.collect(ctx, func(_ *memState, c chat.Chat) bool { return c.InitSender == login })
}

func (r memChats) collect(ctx context.Context, keep func(*memState, chat.Chat) bool) ([]chat.Chat, error) {
	var out []chat.Chat
	err := r.s.do(ctx, func(st *memState) error {
		for _, c := range st.chats {
			if keep(st, c) {
				out = append(out, c)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b chat.Chat) int { return int(a.ChatID - b.ChatID) })
	return out, err
}

type memMessages struct{ s *MemoryStore }

func (r memMessages) Create(ctx context.Context, m *message.Message) error {
	return r.s.do(ctx, func(st *memState) error {
		if _, ok := st.chats[m.ChatID]; !ok {
			return fkError("chat %d", m.ChatID)
		}
		if _, ok := st.users[m.SenderLogin]; !ok {
			return fkError("usr %q", m.SenderLogin)
		}
		st.nextMsgID++
		m.MsgID = st.nextMsgID
		st.messages[m.MsgID] = *m
		return nil
	})
}

func (r memMessages) GetByID(ctx context.Context, chatID, msgID int64) (message.Message, error) {
	var out message.Message
	err := r.s.do(ctx, func(st *memState) error {
		m, ok := st.messages[msgID]
		if !ok || m.ChatID != chatID {
			return messenger_errors.ErrNotFound
		}
		out = m
		return nil
	})
	return out, err
}

func (r memMessages) UpdateText(ctx context.Context, msgID int64, text string) error {
	return r.s.do(ctx, func(st *memState) error {
		m, ok := st.messages[msgID]
		if !ok {
			return messenger_errors.ErrNotFound
		}
		m.Text = text
		st.messages[msgID] = m
		return nil
	})
}

func (r memMessages) Delete(ctx context.Context, msgID int64) error {
	return r.s.do(ctx, func(st *memState) error {
		if _, ok := st.messages[msgID]; !ok {
			return messenger_errors.ErrNotFound
		}
		delete(st.messages, msgID)
		return nil
	})
}

// ordered returns the chat's messages ascending by (timestamp, msg_id).
func (st *memState) ordered(chatID int64) []message.Message {
	var out []message.Message
	for _, m := range st.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b message.Message) int {
		switch {
		case a.Cursor().Before(b.Cursor()):
			return -1
		case b.Cursor().Before(a.Cursor()):
			return 1
		}
		return 0
	})
	return out
}

func (r memMessages) Page(ctx context.Context, chatID int64, after *message.Cursor, limit int) ([]message.Message, error) {
	var out []message.Message
	err := r.s.do(ctx, func(st *memState) error {
		for _, m := range st.ordered(chatID) {
			if len(out) == limit {
				break
			}
			if after == nil || after.Before(m.Cursor()) {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

func (r memMessages) PageBefore(ctx context.Context, chatID int64, before *message.Cursor, limit int) ([]message.Message, error) {
	var out []message.Message
	err := r.s.do(ctx, func(st *memState) error {
		all := st.ordered(chatID)
		end := len(all)
		if before != nil {
			end = 0
			for end < len(all) && all[end].Cursor().Before(*before) {
				end++
			}
		}
		start := max(end-limit, 0)
		out = slices.Clone(all[start:end])
		return nil
	})
	return out, err
}

func (r memMessages) Latest(ctx context.Context, chatID int64) (message.Message, error) {
	msgs, err := r.PageBefore(ctx, chatID, nil, 1)
	if err != nil {
		return message.Message{}, err
	}
	if len(msgs) == 0 {
		return message.Message{}, messenger_errors.ErrNotFound
	}
	return msgs[0], nil
}

func (r memMessages) Count(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.s.do(ctx, func(st *memState) error {
		for _, m := range st.messages {
			if m.ChatID == chatID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r memMessages) DeleteByChat(ctx context.Context, chatID int64) error {
	return r.s.do(ctx, func(st *memState) error {
		for id, m := range st.messages {
			if m.ChatID == chatID {
				delete(st.messages, id)
			}
		}
		return nil
	})
}

func (r memMessages) DeleteBySender(ctx context.Context, login string) error {
	return r.s.do(ctx, func(st *memState) error {
		for id, m := range st.messages {
			if m.SenderLogin == login {
				delete(st.messages, id)
			}
		}
		return nil
	})
}
