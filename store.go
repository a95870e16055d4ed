/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// lockedRand makes a randSource safe for use across rooms; *rand.Rand on
// its own is not.
type lockedRand struct {
	mu  sync.Mutex
	src randSource
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.src.Intn(n)
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.src.Shuffle(n, swap)
}

// RoomStore holds every live room, keyed by room code. It is the sole owner
// of Room lifetimes: rooms are created here and only leave through the
// idle reaper.
type RoomStore struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	rng         randSource
	idleTimeout time.Duration
}

// newRoomStore builds a store with the given random source, falling back to
// a time-seeded one. An idleTimeout of 0 disables the reaper.
func newRoomStore(idleTimeout time.Duration, rng randSource) *RoomStore {
	if rng == nil {
		rng = &lockedRand{src: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}

	s := &RoomStore{
		rooms:       make(map[string]*Room),
		rng:         rng,
		idleTimeout: idleTimeout,
	}

	if idleTimeout > 0 {
		go s.reaperLoop()
	}

	return s
}

// newRoomCode draws a short numeric code. Uniqueness is best-effort: the
// code space is deliberately small so codes stay easy to read out loud.
func (s *RoomStore) newRoomCode() string {
	return strconv.Itoa(1000 + s.rng.Intn(9000))
}

// CreateRoom makes a waiting room containing only the host and registers it
// under a fresh code. The returned room is immediately retrievable.
func (s *RoomStore) CreateRoom(hostID string) *Room {
	room := newRoom(s.newRoomCode(), hostID, s.rng)

	s.mu.Lock()
	s.rooms[room.code] = room
	s.mu.Unlock()

	return room
}

// Get looks up a room by code.
func (s *RoomStore) Get(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]

	return room, ok
}

// reaperLoop periodically removes rooms that have been idle longer than
// idleTimeout.
func (s *RoomStore) reaperLoop() {
	ticker := time.NewTicker(s.idleTimeout / 2)
	for range ticker.C {
		s.evictIdle(time.Now().Add(-s.idleTimeout))
	}
}

// evictIdle drops every room whose last activity predates the cutoff and
// reports how many were removed.
func (s *RoomStore) evictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for code, room := range s.rooms {
		if room.LastActive().Before(cutoff) {
			delete(s.rooms, code)
			removed++
		}
	}

	return removed
}
