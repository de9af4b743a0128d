package main

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"testing"
	"time"
)

func newTestRegistry(uniqueCodes bool) *Registry {
	return newRegistry(defaultCatalog(), rand.New(rand.NewPCG(3, 4)), uniqueCodes)
}

func TestRoomCodeRange(t *testing.T) {
	r := newTestRegistry(false)

	for range 10000 {
		code := r.newRoomCode()

		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric: %v", code, err)
		}
		if n < 1000 || n > 900999 {
			t.Fatalf("code %d out of range", n)
		}
		if len(code) < 4 || len(code) > 6 {
			t.Fatalf("code %q has %d digits", code, len(code))
		}
	}
}

func TestCreateSeatsHost(t *testing.T) {
	r := newTestRegistry(false)

	s := r.Create("host", "Alice")
	if s.Len() != 1 {
		t.Fatalf("expected 1 player, got %d", s.Len())
	}
	if p := s.player("host"); p == nil || !p.IsHost || p.Name != "Alice" {
		t.Fatalf("host not seated: %+v", p)
	}
	if s.Phase() != PhaseLobby {
		t.Fatalf("expected lobby, got %s", s.Phase())
	}

	got, err := r.Lookup(s.Code())
	if err != nil || got != s {
		t.Fatalf("lookup failed: %v", err)
	}
}

func TestLookupAfterEvict(t *testing.T) {
	r := newTestRegistry(false)

	s := r.Create("host", "Alice")
	r.Evict(s.Code())

	_, err := r.Lookup(s.Code())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "Room not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if r.Count() != 0 {
		t.Fatalf("expected no rooms, got %d", r.Count())
	}
}

func TestUniqueRoomCodes(t *testing.T) {
	r := newTestRegistry(true)

	seen := make(map[string]bool)
	for i := range 2000 {
		s := r.Create("host-"+strconv.Itoa(i), "Alice")
		if seen[s.Code()] {
			t.Fatalf("code %s issued twice", s.Code())
		}
		seen[s.Code()] = true
	}

	if r.Count() != 2000 {
		t.Fatalf("expected 2000 rooms, got %d", r.Count())
	}
}

func TestRoomsWith(t *testing.T) {
	r := newTestRegistry(true)

	r.Create("p1", "Alice")
	b := r.Create("p2", "Bob")
	if err := b.addPlayer("p1", "Alice", false); err != nil {
		t.Fatalf("add: %v", err)
	}

	rooms := r.RoomsWith("p1")
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Code() > rooms[1].Code() {
		t.Fatalf("rooms not ordered: %s, %s", rooms[0].Code(), rooms[1].Code())
	}

	if rooms := r.RoomsWith("p2"); len(rooms) != 1 || rooms[0] != b {
		t.Fatalf("expected only %s for p2", b.Code())
	}
	if rooms := r.RoomsWith("nobody"); len(rooms) != 0 {
		t.Fatalf("expected no rooms, got %d", len(rooms))
	}
}

func TestIdle(t *testing.T) {
	r := newTestRegistry(true)

	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	stale := r.Create("p1", "Alice")

	clock = clock.Add(time.Hour)
	r.Create("p2", "Bob")

	idle := r.Idle(clock.Add(-30 * time.Minute))
	if len(idle) != 1 || idle[0] != stale {
		t.Fatalf("expected only %s idle, got %d rooms", stale.Code(), len(idle))
	}
}
