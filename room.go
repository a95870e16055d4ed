/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"sync"
	"time"
)

// Game lifecycle failures, surfaced to the transport layer as typed errors.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomNotJoinable     = errors.New("game already started")
	ErrForbidden           = errors.New("only the host may do that")
	ErrInsufficientPlayers = errors.New("need at least 3 players")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrImposterCount       = errors.New("imposter count must be at least 1 and lower than the player count")
	ErrInvalidTransition   = errors.New("not allowed in the current phase")
	ErrPlayerNotFound      = errors.New("player not found")
)

const minPlayers = 3

// Status is the room's point in its forward-only lifecycle.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusReveal  Status = "reveal"
	StatusVoting  Status = "voting"
	StatusResults Status = "results"
)

const (
	RoleCrew     = "crew"
	RoleImposter = "imposter"
)

const (
	ResultCrewWin     = "crew_win"
	ResultImposterWin = "imposter_win"
)

// randSource supplies the randomness behind word selection and role
// assignment. Satisfied by *math/rand.Rand, replaced by a fake in tests.
type randSource interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Player holds the data we store server-side for one participant.
type Player struct {
	ID          string
	Name        string
	Role        string // empty until the game starts
	Word        string // empty for imposters
	HasRevealed bool
}

// Room is one game session. Every mutating operation takes the write lock,
// so concurrent requests against the same room are serialized; projections
// only take the read lock.
type Room struct {
	code   string
	hostID string
	rng    randSource

	mu                 sync.RWMutex
	players            []*Player
	status             Status
	category           string
	numImposters       int
	secretWord         string
	votes              map[string]string // voter -> target
	eliminatedPlayerID string
	gameResult         string
	lastActive         time.Time
}

func newRoom(code, hostID string, rng randSource) *Room {
	return &Room{
		code:       code,
		hostID:     hostID,
		rng:        rng,
		players:    []*Player{{ID: hostID, Name: "Host"}},
		status:     StatusWaiting,
		votes:      make(map[string]string),
		lastActive: time.Now(),
	}
}

// PublicPlayer is the roster entry safe to show to everyone.
type PublicPlayer struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PublicState is the room view broadcast to all participants. It never
// carries roles, words, or the raw vote map.
type PublicState struct {
	RoomCode           string         `json:"roomCode"`
	Players            []PublicPlayer `json:"players"`
	Status             Status         `json:"status"`
	Category           string         `json:"category,omitempty"`
	NumImposters       int            `json:"numImposters,omitempty"`
	EliminatedPlayerID string         `json:"eliminatedPlayerId,omitempty"`
	GameResult         string         `json:"gameResult,omitempty"`
}

// PlayerInfo is the private view for exactly one participant.
type PlayerInfo struct {
	Role     string `json:"role"`
	Word     string `json:"word"`
	Category string `json:"category"`
}

func (r *Room) touchLocked() {
	r.lastActive = time.Now()
}

func (r *Room) findPlayerLocked(playerID string) *Player {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// Join appends a player to the roster, or renames them if the ID is already
// known. Only possible while the room is still waiting.
func (r *Room) Join(playerID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusWaiting {
		return ErrRoomNotJoinable
	}

	if p := r.findPlayerLocked(playerID); p != nil {
		p.Name = name
	} else {
		r.players = append(r.players, &Player{ID: playerID, Name: name})
	}

	r.touchLocked()

	return nil
}

// Start assigns roles and the secret word, and moves the room to the reveal
// phase. Host only. The word is drawn first and the roster shuffled second,
// both from the injected random source; the first numImposters players of
// the shuffled order become imposters, everyone else is crew and receives
// the same word.
func (r *Room) Start(hostID, category string, numImposters int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hostID != r.hostID {
		return ErrForbidden
	}
	if r.status != StatusWaiting {
		return ErrInvalidTransition
	}
	if len(r.players) < minPlayers {
		return ErrInsufficientPlayers
	}

	words, ok := wordLists[category]
	if !ok {
		return ErrUnknownCategory
	}

	if numImposters < 1 || numImposters >= len(r.players) {
		return ErrImposterCount
	}

	secret := words[r.rng.Intn(len(words))]

	shuffled := make([]*Player, len(r.players))
	copy(shuffled, r.players)
	r.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	for i, p := range shuffled {
		if i < numImposters {
			p.Role = RoleImposter
			p.Word = ""
		} else {
			p.Role = RoleCrew
			p.Word = secret
		}
		p.HasRevealed = false
	}

	r.category = category
	r.numImposters = numImposters
	r.secretWord = secret
	r.status = StatusReveal
	r.votes = make(map[string]string)
	r.touchLocked()

	return nil
}

// MarkRevealed records that a player has seen their role. Idempotent, and a
// no-op for unknown player IDs. It reports whether every roster member has
// acknowledged, but never advances the phase itself; the host does that
// through StartVoting.
func (r *Room) MarkRevealed(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.findPlayerLocked(playerID); p != nil {
		p.HasRevealed = true
	}

	r.touchLocked()

	for _, p := range r.players {
		if !p.HasRevealed {
			return false
		}
	}
	return true
}

// StartVoting moves the room from reveal to voting and clears any previous
// votes. Host only.
func (r *Room) StartVoting(hostID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hostID != r.hostID {
		return ErrForbidden
	}
	if r.status != StatusReveal {
		return ErrInvalidTransition
	}

	r.status = StatusVoting
	r.votes = make(map[string]string)
	r.touchLocked()

	return nil
}

// SubmitVote records one player's vote. Once every roster member has a
// recorded vote, the tally runs and the room moves to results; any vote
// arriving after that is rejected without mutating anything.
func (r *Room) SubmitVote(playerID, votedForID string) (allVoted bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusVoting {
		return false, ErrInvalidTransition
	}

	r.votes[playerID] = votedForID
	r.touchLocked()

	for _, p := range r.players {
		if r.votes[p.ID] == "" {
			return false, nil
		}
	}

	r.tallyLocked()

	return true, nil
}

// tallyLocked computes the elimination and outcome. Candidates are visited
// in join order and the first strict maximum wins, so a tied count
// eliminates the earlier-joined player. Eliminating an imposter is a full
// crew win even when other imposters remain.
func (r *Room) tallyLocked() {
	counts := make(map[string]int, len(r.players))
	for _, p := range r.players {
		counts[p.ID] = 0
	}
	for _, target := range r.votes {
		counts[target]++
	}

	most := -1
	for _, p := range r.players {
		if counts[p.ID] > most {
			most = counts[p.ID]
			r.eliminatedPlayerID = p.ID
		}
	}

	r.gameResult = ResultImposterWin
	if p := r.findPlayerLocked(r.eliminatedPlayerID); p != nil && p.Role == RoleImposter {
		r.gameResult = ResultCrewWin
	}

	r.status = StatusResults
}

// PublicState strips every secret from the room: no roles, no words, no
// votes.
func (r *Room) PublicState() PublicState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]PublicPlayer, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PublicPlayer{ID: p.ID, Name: p.Name})
	}

	return PublicState{
		RoomCode:           r.code,
		Players:            players,
		Status:             r.status,
		Category:           r.category,
		NumImposters:       r.numImposters,
		EliminatedPlayerID: r.eliminatedPlayerID,
		GameResult:         r.gameResult,
	}
}

// PlayerInfo returns the private view for exactly one player. The secret
// word only ever leaves the room through a crew member's own Word field.
func (r *Room) PlayerInfo(playerID string) (PlayerInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p := r.findPlayerLocked(playerID)
	if p == nil {
		return PlayerInfo{}, ErrPlayerNotFound
	}

	return PlayerInfo{
		Role:     p.Role,
		Word:     p.Word,
		Category: r.category,
	}, nil
}

// LastActive reports when the room last processed an operation, for the
// idle-room reaper.
func (r *Room) LastActive() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.lastActive
}
