package message

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	c := Cursor{Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC), MsgID: 42}
	parsed, err := ParseCursor(c.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Timestamp.Equal(c.Timestamp) || parsed.MsgID != c.MsgID {
		t.Fatalf("round trip mismatch: %+v vs %+v", parsed, c)
	}
	for _, bad := range []string{"nope", "1.x", "x.1"} {
		if _, err := ParseCursor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCursorBefore(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Cursor{Timestamp: ts, MsgID: 1}
	b := Cursor{Timestamp: ts, MsgID: 2}
	c := Cursor{Timestamp: ts.Add(time.Second), MsgID: 0}
	if !a.Before(b) || b.Before(a) {
		t.Fatalf("msg_id must break timestamp ties")
	}
	if !b.Before(c) || a.Before(a) {
		t.Fatalf("timestamp ordering broken")
	}
}

func TestNextTimestamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := NextTimestamp(now, now.Add(-time.Minute)); !got.Equal(now) {
		t.Fatalf("expected now, got %v", got)
	}
	later := now.Add(time.Minute)
	if got := NextTimestamp(now, later); !got.Equal(later) {
		t.Fatalf("expected latest when clock lags, got %v", got)
	}
	if got := NextTimestamp(now, time.Time{}); !got.Equal(now) {
		t.Fatalf("empty chat should use now, got %v", got)
	}
}
