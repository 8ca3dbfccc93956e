package chat

import "testing"

func TestTypeFor(t *testing.T) {
	cases := []struct {
		from  Type
		count int
		want  Type
	}{
		{TypePrivate, 1, TypePrivate},
		{TypePrivate, 2, TypePrivate},
		{TypePrivate, 3, TypeGroup},
		{TypeGroup, 2, TypeGroup},
	}
	for _, tc := range cases {
		if got := TypeFor(tc.from, tc.count); got != tc.want {
			t.Fatalf("TypeFor(%s, %d) = %s, want %s", tc.from, tc.count, got, tc.want)
		}
		if !CanTransition(tc.from, tc.want) {
			t.Fatalf("TypeFor produced a forbidden transition %s -> %s", tc.from, tc.want)
		}
	}
	if CanTransition(TypeGroup, TypePrivate) {
		t.Fatalf("group must never revert to private")
	}
}

func TestSuccessor(t *testing.T) {
	members := []Membership{{Member: "alice"}, {Member: "bob"}, {Member: "carol"}}
	if got := Successor(members, "alice"); got != "bob" {
		t.Fatalf("expected bob, got %q", got)
	}
	if got := Successor(members, "bob"); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
	if got := Successor(members[:1], "alice"); got != "" {
		t.Fatalf("expected no successor, got %q", got)
	}
}
