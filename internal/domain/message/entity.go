package message

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxTextLength matches message.msg_text VARCHAR(300).
const MaxTextLength = 300

// Message represents the message table
type Message struct {
	MsgID       int64
	ChatID      int64
	SenderLogin string
	Text        string
	Timestamp   time.Time
}

// Cursor is a keyset position in a chat's history, ordered by (Timestamp, MsgID).
type Cursor struct {
	Timestamp time.Time
	MsgID     int64
}

func (m Message) Cursor() Cursor {
	return Cursor{Timestamp: m.Timestamp, MsgID: m.MsgID}
}

// Before reports whether c sorts strictly before o.
func (c Cursor) Before(o Cursor) bool {
	if c.Timestamp.Equal(o.Timestamp) {
		return c.MsgID < o.MsgID
	}
	return c.Timestamp.Before(o.Timestamp)
}

// String encodes the cursor as "<unix-nanos>.<msg_id>" for transport.
func (c Cursor) String() string {
	return fmt.Sprintf("%d.%d", c.Timestamp.UnixNano(), c.MsgID)
}

func ParseCursor(s string) (Cursor, error) {
	nanos, id, ok := strings.Cut(s, ".")
	if !ok {
		return Cursor{}, fmt.Errorf("malformed cursor %q", s)
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	msgID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("malformed cursor %q: %w", s, err)
	}
	return Cursor{Timestamp: time.Unix(0, n).UTC(), MsgID: msgID}, nil
}

// NextTimestamp returns the timestamp to stamp on a new message so that a chat's
// history stays non-decreasing: now, unless the latest stored message is later.
func NextTimestamp(now, latest time.Time) time.Time {
	if latest.After(now) {
		return latest
	}
	return now
}
