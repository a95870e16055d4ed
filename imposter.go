// Imposter
//
// A host creates a room and shares its four-digit code (or a QR link).
// Other players join from their phones, the host picks a word category and
// how many imposters to hide, and the game starts: crew members are shown
// the same secret word, imposters are shown nothing. Everyone gives clues
// out loud, then votes on who the imposter is. Eliminating an imposter is a
// crew win; eliminating anyone else hands the game to the imposters.
//
// Features:
// - REST API for every player action, WebSocket push per room: /ws/:code
// - Public room state broadcast after every accepted mutation
// - Private role/word payloads pushed once per player at game start
// - Room codes are short numeric strings, easy to read out loud
// - Host-only controls for starting the game and opening the vote
// - Rooms auto-reaped after a configurable idle timeout
// - In-browser QR code to share the join link, backed by go-qrcode

package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// wsEnvelope is the framing for every message pushed to clients. PlayerID
// is only set on player_info payloads, so each client can pick out its own.
type wsEnvelope struct {
	Type     string `json:"type"`     // "room_update" or "player_info"
	PlayerID string `json:"playerId,omitempty"`
	Data     any    `json:"data"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan wsEnvelope
}

// broadcaster fans room updates out to every socket subscribed to a room
// code. Sends are fire-and-forget: a slow client is dropped rather than
// allowed to stall a game mutation.
type broadcaster struct {
	mu    sync.RWMutex
	rooms map[string]map[*wsClient]bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		rooms: make(map[string]map[*wsClient]bool),
	}
}

func (b *broadcaster) subscribe(code string, c *wsClient) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rooms[code] == nil {
		b.rooms[code] = make(map[*wsClient]bool)
	}
	b.rooms[code][c] = true
}

func (b *broadcaster) unsubscribe(code string, c *wsClient) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.rooms[code]; ok && clients[c] {
		delete(clients, c)
		close(c.send)
		if len(clients) == 0 {
			delete(b.rooms, code)
		}
	}
}

func (b *broadcaster) broadcast(code string, msg wsEnvelope) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for c := range b.rooms[code] {
		select {
		case c.send <- msg:
		default:
			delete(b.rooms[code], c)
			close(c.send)
		}
	}
}

// RoomUpdate pushes the new public state to every client in the room.
func (b *broadcaster) RoomUpdate(code string, state PublicState) {
	b.broadcast(code, wsEnvelope{Type: "room_update", Data: state})
}

// PlayerInfo pushes one player's private view, tagged with their ID so
// every other client discards it.
func (b *broadcaster) PlayerInfo(code, playerID string, info PlayerInfo) {
	b.broadcast(code, wsEnvelope{Type: "player_info", PlayerID: playerID, Data: info})
}

func (c *wsClient) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// readPump drains inbound frames until the peer goes away. Clients never
// send game messages over the socket; every action goes through the API.
func (c *wsClient) readPump(b *broadcaster, code string) {
	defer func() {
		b.unsubscribe(code, c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// gameServer glues the room store and broadcaster to the HTTP surface.
type gameServer struct {
	store *RoomStore
	bc    *broadcaster
}

func newGameServer(store *RoomStore) *gameServer {
	return &gameServer{
		store: store,
		bc:    newBroadcaster(),
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrRoomNotFound), errors.Is(err, ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func writeError(cfg *Config, w http.ResponseWriter, err error) {
	writeJSON(cfg, w, statusForError(err), map[string]string{"error": err.Error()})
}

var errMissingFields = errors.New("missing required fields")

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	return json.NewDecoder(r.Body).Decode(v)
}

type joinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

type startGameRequest struct {
	RoomCode     string `json:"roomCode"`
	HostID       string `json:"hostId"`
	Category     string `json:"category"`
	NumImposters int    `json:"numImposters"`
}

type markRevealedRequest struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type startVotingRequest struct {
	RoomCode string `json:"roomCode"`
	HostID   string `json:"hostId"`
}

type submitVoteRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerID   string `json:"playerId"`
	VotedForID string `json:"votedForId"`
}

func (gs *gameServer) handleCreateRoom(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		hostID := uuid.NewString()
		room := gs.store.CreateRoom(hostID)

		logf(cfg, "ROOMS: Created room %s for %s", room.code, realIP(r))

		writeJSON(cfg, w, http.StatusOK, map[string]string{
			"roomCode": room.code,
			"hostId":   hostID,
		})
	}
}

func (gs *gameServer) handleJoinRoom(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req joinRoomRequest
		if err := decodeJSON(r, &req); err != nil || req.RoomCode == "" || req.PlayerName == "" {
			writeError(cfg, w, errMissingFields)
			return
		}

		room, ok := gs.store.Get(req.RoomCode)
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		playerID := uuid.NewString()
		if err := room.Join(playerID, req.PlayerName); err != nil {
			writeError(cfg, w, err)
			return
		}

		logf(cfg, "ROOMS: Player %q joined room %s", req.PlayerName, room.code)

		state := room.PublicState()
		gs.bc.RoomUpdate(room.code, state)

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"playerId": playerID,
			"roomCode": state.RoomCode,
			"players":  state.Players,
			"status":   state.Status,
		})
	}
}

func (gs *gameServer) handleStartGame(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req startGameRequest
		if err := decodeJSON(r, &req); err != nil || req.RoomCode == "" || req.HostID == "" || req.Category == "" || req.NumImposters == 0 {
			writeError(cfg, w, errMissingFields)
			return
		}

		room, ok := gs.store.Get(req.RoomCode)
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		if err := room.Start(req.HostID, req.Category, req.NumImposters); err != nil {
			writeError(cfg, w, err)
			return
		}

		state := room.PublicState()
		logf(cfg, "GAMES: Started room %s with %d players, category %q, %d imposter(s)",
			room.code, len(state.Players), req.Category, req.NumImposters)

		// Private payloads first, so each client knows its role before the
		// public phase change lands.
		for _, p := range state.Players {
			info, err := room.PlayerInfo(p.ID)
			if err != nil {
				continue
			}
			gs.bc.PlayerInfo(room.code, p.ID, info)
		}

		gs.bc.RoomUpdate(room.code, state)

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"status":  state.Status,
		})
	}
}

func (gs *gameServer) handleMarkRevealed(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req markRevealedRequest
		if err := decodeJSON(r, &req); err != nil || req.RoomCode == "" || req.PlayerID == "" {
			writeError(cfg, w, errMissingFields)
			return
		}

		room, ok := gs.store.Get(req.RoomCode)
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		allRevealed := room.MarkRevealed(req.PlayerID)

		gs.bc.RoomUpdate(room.code, room.PublicState())

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success":     true,
			"allRevealed": allRevealed,
		})
	}
}

func (gs *gameServer) handleStartVoting(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req startVotingRequest
		if err := decodeJSON(r, &req); err != nil || req.RoomCode == "" || req.HostID == "" {
			writeError(cfg, w, errMissingFields)
			return
		}

		room, ok := gs.store.Get(req.RoomCode)
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		if err := room.StartVoting(req.HostID); err != nil {
			writeError(cfg, w, err)
			return
		}

		logf(cfg, "GAMES: Voting opened in room %s", room.code)

		state := room.PublicState()
		gs.bc.RoomUpdate(room.code, state)

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success": true,
			"status":  state.Status,
		})
	}
}

func (gs *gameServer) handleSubmitVote(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req submitVoteRequest
		if err := decodeJSON(r, &req); err != nil || req.RoomCode == "" || req.PlayerID == "" || req.VotedForID == "" {
			writeError(cfg, w, errMissingFields)
			return
		}

		room, ok := gs.store.Get(req.RoomCode)
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		allVoted, err := room.SubmitVote(req.PlayerID, req.VotedForID)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		state := room.PublicState()
		if allVoted {
			logf(cfg, "GAMES: Room %s finished, %s", room.code, state.GameResult)
		}

		gs.bc.RoomUpdate(room.code, state)

		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"success":  true,
			"allVoted": allVoted,
			"status":   state.Status,
		})
	}
}

func (gs *gameServer) handleRoomState(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room, ok := gs.store.Get(r.URL.Query().Get("roomCode"))
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		writeJSON(cfg, w, http.StatusOK, room.PublicState())
	}
}

func (gs *gameServer) handlePlayerInfo(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		room, ok := gs.store.Get(r.URL.Query().Get("roomCode"))
		if !ok {
			writeError(cfg, w, ErrRoomNotFound)
			return
		}

		info, err := room.PlayerInfo(r.URL.Query().Get("playerId"))
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		writeJSON(cfg, w, http.StatusOK, info)
	}
}

func handleCategories(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(cfg, w, http.StatusOK, map[string]any{
			"categories": categories(),
		})
	}
}

// serveWS subscribes a client to its room's update stream. If the room
// already exists, the current public state is sent immediately so late
// joiners render without waiting for the next mutation.
func (gs *gameServer) serveWS(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		code := ps.ByName("code")
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &wsClient{
			conn: conn,
			send: make(chan wsEnvelope, 8),
		}

		gs.bc.subscribe(code, client)

		if room, ok := gs.store.Get(code); ok {
			client.send <- wsEnvelope{Type: "room_update", Data: room.PublicState()}
		}

		go client.writePump()
		client.readPump(gs.bc, code)
	}
}

// qrHandler generates a PNG QR code for the current join URL using
// go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing room code", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /join/:code/qr; strip trailing "/qr" to get the join URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerImposterGame sets up routes so that:
//   - /                      → HTML client
//   - /join/:code            → HTML client, deep-linked to a room
//   - /join/:code/qr         → PNG QR code for that join URL
//   - /api/*                 → one endpoint per player action
//   - /ws/:code              → per-room update stream
func registerImposterGame(cfg *Config, mux *httprouter.Router, errs chan<- error) {
	gs := newGameServer(newRoomStore(cfg.roomTimeout, nil))
	gs.register(cfg, mux, errs)
}

func (gs *gameServer) register(cfg *Config, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveIndex(cfg))
	mux.GET(cfg.prefix+"/join/:code", serveIndex(cfg))
	mux.GET(cfg.prefix+"/join/:code/qr", qrHandler)

	mux.GET(cfg.prefix+"/assets/imposter/app.css", serveAssets(cfg, errs))
	mux.GET(cfg.prefix+"/assets/imposter/app.js", serveAssets(cfg, errs))

	mux.POST(cfg.prefix+"/api/create_room", gs.handleCreateRoom(cfg))
	mux.POST(cfg.prefix+"/api/join_room", gs.handleJoinRoom(cfg))
	mux.POST(cfg.prefix+"/api/start_game", gs.handleStartGame(cfg))
	mux.POST(cfg.prefix+"/api/mark_revealed", gs.handleMarkRevealed(cfg))
	mux.POST(cfg.prefix+"/api/start_voting", gs.handleStartVoting(cfg))
	mux.POST(cfg.prefix+"/api/submit_vote", gs.handleSubmitVote(cfg))
	mux.GET(cfg.prefix+"/api/get_room_state", gs.handleRoomState(cfg))
	mux.GET(cfg.prefix+"/api/get_player_info", gs.handlePlayerInfo(cfg))
	mux.GET(cfg.prefix+"/api/categories", handleCategories(cfg))

	mux.GET(cfg.prefix+"/ws/:code", gs.serveWS(cfg))
}
