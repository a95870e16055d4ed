/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, rng randSource) *httptest.Server {
	t.Helper()

	cfg := &Config{port: 8080}
	mux := httprouter.New()
	errs := make(chan error, 64)

	gs := newGameServer(newRoomStore(0, rng))
	gs.register(cfg, mux, errs)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func postJSON(t *testing.T, url string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return resp.StatusCode, out
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return resp.StatusCode, out
}

func TestGameFlow(t *testing.T) {
	rng := &scriptedRand{ints: []int{2345, 0}} // code 3345, word "Elephant"
	srv := newTestServer(t, rng)

	status, created := postJSON(t, srv.URL+"/api/create_room", nil)
	require.Equal(t, http.StatusOK, status)
	code := created["roomCode"].(string)
	hostID := created["hostId"].(string)
	assert.Equal(t, "3345", code)
	require.NotEmpty(t, hostID)

	status, joined := postJSON(t, srv.URL+"/api/join_room",
		map[string]any{"roomCode": code, "playerName": "Alice"})
	require.Equal(t, http.StatusOK, status)
	aliceID := joined["playerId"].(string)
	assert.Len(t, joined["players"], 2)

	status, joined = postJSON(t, srv.URL+"/api/join_room",
		map[string]any{"roomCode": code, "playerName": "Bob"})
	require.Equal(t, http.StatusOK, status)
	bobID := joined["playerId"].(string)

	// Only the host can start.
	status, body := postJSON(t, srv.URL+"/api/start_game",
		map[string]any{"roomCode": code, "hostId": aliceID, "category": "Animals", "numImposters": 1})
	assert.Equal(t, http.StatusForbidden, status)
	assert.NotEmpty(t, body["error"])

	status, body = postJSON(t, srv.URL+"/api/start_game",
		map[string]any{"roomCode": code, "hostId": hostID, "category": "Animals", "numImposters": 1})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "reveal", body["status"])

	// Identity shuffle in the scripted source: the host is the imposter.
	status, info := getJSON(t,
		srv.URL+"/api/get_player_info?roomCode="+code+"&playerId="+hostID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "imposter", info["role"])
	assert.Empty(t, info["word"])

	status, info = getJSON(t,
		srv.URL+"/api/get_player_info?roomCode="+code+"&playerId="+aliceID)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "crew", info["role"])
	assert.Equal(t, "Elephant", info["word"])
	assert.Equal(t, "Animals", info["category"])

	// Nobody can join once the game is underway.
	status, body = postJSON(t, srv.URL+"/api/join_room",
		map[string]any{"roomCode": code, "playerName": "Late"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])

	for i, id := range []string{hostID, aliceID} {
		status, body = postJSON(t, srv.URL+"/api/mark_revealed",
			map[string]any{"roomCode": code, "playerId": id})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, false, body["allRevealed"], "player %d", i)
	}
	status, body = postJSON(t, srv.URL+"/api/mark_revealed",
		map[string]any{"roomCode": code, "playerId": bobID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["allRevealed"])

	status, _ = postJSON(t, srv.URL+"/api/start_voting",
		map[string]any{"roomCode": code, "hostId": aliceID})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = postJSON(t, srv.URL+"/api/start_voting",
		map[string]any{"roomCode": code, "hostId": hostID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "voting", body["status"])

	status, body = postJSON(t, srv.URL+"/api/submit_vote",
		map[string]any{"roomCode": code, "playerId": aliceID, "votedForId": hostID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["allVoted"])

	status, body = postJSON(t, srv.URL+"/api/submit_vote",
		map[string]any{"roomCode": code, "playerId": bobID, "votedForId": hostID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["allVoted"])

	status, body = postJSON(t, srv.URL+"/api/submit_vote",
		map[string]any{"roomCode": code, "playerId": hostID, "votedForId": aliceID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["allVoted"])
	assert.Equal(t, "results", body["status"])

	status, room := getJSON(t, srv.URL+"/api/get_room_state?roomCode="+code)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, hostID, room["eliminatedPlayerId"])
	assert.Equal(t, "crew_win", room["gameResult"])

	// A straggler vote after results is rejected.
	status, body = postJSON(t, srv.URL+"/api/submit_vote",
		map[string]any{"roomCode": code, "playerId": aliceID, "votedForId": bobID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestUnknownRoomReturns404(t *testing.T) {
	srv := newTestServer(t, nil)

	status, _ := postJSON(t, srv.URL+"/api/join_room",
		map[string]any{"roomCode": "0000", "playerName": "Alice"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = getJSON(t, srv.URL+"/api/get_room_state?roomCode=0000")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = getJSON(t, srv.URL+"/api/get_player_info?roomCode=0000&playerId=x")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStartWithTooFewPlayers(t *testing.T) {
	srv := newTestServer(t, nil)

	_, created := postJSON(t, srv.URL+"/api/create_room", nil)
	code := created["roomCode"].(string)
	hostID := created["hostId"].(string)

	_, _ = postJSON(t, srv.URL+"/api/join_room",
		map[string]any{"roomCode": code, "playerName": "Alice"})

	status, body := postJSON(t, srv.URL+"/api/start_game",
		map[string]any{"roomCode": code, "hostId": hostID, "category": "Animals", "numImposters": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])

	_, room := getJSON(t, srv.URL+"/api/get_room_state?roomCode="+code)
	assert.Equal(t, "waiting", room["status"])
}

func TestCategoriesEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body := getJSON(t, srv.URL+"/api/categories")

	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["categories"], len(wordLists))
}

type testEnvelope struct {
	Type     string          `json:"type"`
	PlayerID string          `json:"playerId"`
	Data     json.RawMessage `json:"data"`
}

func readEnvelope(t *testing.T, conn *websocket.Conn) testEnvelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg testEnvelope
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func TestWebsocketPushesUpdates(t *testing.T) {
	srv := newTestServer(t, nil)

	_, created := postJSON(t, srv.URL+"/api/create_room", nil)
	code := created["roomCode"].(string)
	hostID := created["hostId"].(string)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + code
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Current state is replayed on connect.
	msg := readEnvelope(t, conn)
	require.Equal(t, "room_update", msg.Type)

	var state PublicState
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	assert.Equal(t, code, state.RoomCode)
	assert.Len(t, state.Players, 1)

	for _, name := range []string{"Alice", "Bob"} {
		status, _ := postJSON(t, srv.URL+"/api/join_room",
			map[string]any{"roomCode": code, "playerName": name})
		require.Equal(t, http.StatusOK, status)

		msg = readEnvelope(t, conn)
		require.Equal(t, "room_update", msg.Type)
	}

	require.NoError(t, json.Unmarshal(msg.Data, &state))
	assert.Len(t, state.Players, 3)

	status, _ := postJSON(t, srv.URL+"/api/start_game",
		map[string]any{"roomCode": code, "hostId": hostID, "category": "Foods", "numImposters": 1})
	require.Equal(t, http.StatusOK, status)

	// One private payload per player, then the public phase change.
	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		msg = readEnvelope(t, conn)
		require.Equal(t, "player_info", msg.Type)
		require.NotEmpty(t, msg.PlayerID)
		seen[msg.PlayerID] = true
	}
	assert.Len(t, seen, 3)
	assert.True(t, seen[hostID])

	msg = readEnvelope(t, conn)
	require.Equal(t, "room_update", msg.Type)
	require.NoError(t, json.Unmarshal(msg.Data, &state))
	assert.Equal(t, StatusReveal, state.Status)
}
