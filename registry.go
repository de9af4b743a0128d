package main

import (
	crand "crypto/rand"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	roomCodeMin  = 1000
	roomCodeSpan = 900000
)

// Registry owns every live room, keyed by room code. Like Session, it is
// only touched from the gateway loop.
type Registry struct {
	catalog     *Catalog
	rng         *rand.Rand
	now         func() time.Time
	newID       func() string
	uniqueCodes bool

	rooms map[string]*Session
}

func newRegistry(catalog *Catalog, rng *rand.Rand, uniqueCodes bool) *Registry {
	return &Registry{
		catalog:     catalog,
		rng:         rng,
		now:         time.Now,
		newID:       uuid.NewString,
		uniqueCodes: uniqueCodes,
		rooms:       make(map[string]*Session),
	}
}

// newRNG returns a generator seeded from crypto/rand.
func newRNG() *rand.Rand {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return rand.New(rand.NewChaCha8(seed))
}

// newRoomCode draws a code in [1000, 900999]. Unless uniqueCodes is set the
// draw is not checked against live rooms, so a collision replaces the older
// room.
func (r *Registry) newRoomCode() string {
	for {
		code := strconv.Itoa(roomCodeMin + r.rng.IntN(roomCodeSpan))
		if !r.uniqueCodes {
			return code
		}
		if _, exists := r.rooms[code]; !exists {
			return code
		}
	}
}

// Create opens a room with the creator seated as host.
func (r *Registry) Create(hostID, hostName string) *Session {
	code := r.newRoomCode()

	s := newSession(code, r.catalog, r.rng, r.now, r.newID)
	_ = s.addPlayer(hostID, hostName, true)

	r.rooms[code] = s

	return s
}

func (r *Registry) Lookup(code string) (*Session, error) {
	s, ok := r.rooms[code]
	if !ok {
		return nil, newGameError(ErrNotFound, "Room not found")
	}
	return s, nil
}

func (r *Registry) Evict(code string) {
	delete(r.rooms, code)
}

func (r *Registry) Count() int {
	return len(r.rooms)
}

// RoomsWith returns every room seating playerID, ordered by code.
func (r *Registry) RoomsWith(playerID string) []*Session {
	var out []*Session
	for _, s := range r.rooms {
		if s.hasPlayer(playerID) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *Session) int {
		return strings.Compare(a.code, b.code)
	})
	return out
}

// Idle returns rooms whose last activity is before cutoff.
func (r *Registry) Idle(cutoff time.Time) []*Session {
	var out []*Session
	for _, s := range r.rooms {
		if s.lastActive.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
