/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomIsImmediatelyRetrievable(t *testing.T) {
	store := newRoomStore(0, &scriptedRand{ints: []int{500}})

	room := store.CreateRoom("host")
	assert.Equal(t, "1500", room.code)

	got, ok := store.Get("1500")
	require.True(t, ok)
	assert.Same(t, room, got)

	state := got.PublicState()
	assert.Equal(t, StatusWaiting, state.Status)
	require.Len(t, state.Players, 1)
	assert.Equal(t, "host", state.Players[0].ID)
	assert.Equal(t, "Host", state.Players[0].Name)
}

func TestGetMissingRoom(t *testing.T) {
	store := newRoomStore(0, nil)

	_, ok := store.Get("0000")

	assert.False(t, ok)
}

func TestRoomCodesAreShortNumericStrings(t *testing.T) {
	store := newRoomStore(0, nil)

	for i := 0; i < 50; i++ {
		room := store.CreateRoom("host")

		code, err := strconv.Atoi(room.code)
		require.NoError(t, err, "code %q is not numeric", room.code)
		assert.GreaterOrEqual(t, code, 1000)
		assert.LessOrEqual(t, code, 9999)
	}
}

func TestEvictIdleOnlyRemovesIdleRooms(t *testing.T) {
	store := newRoomStore(0, &scriptedRand{ints: []int{100, 200}})

	idle := store.CreateRoom("host-a")
	fresh := store.CreateRoom("host-b")

	idle.mu.Lock()
	idle.lastActive = time.Now().Add(-2 * time.Hour)
	idle.mu.Unlock()

	removed := store.evictIdle(time.Now().Add(-time.Hour))
	assert.Equal(t, 1, removed)

	_, ok := store.Get(idle.code)
	assert.False(t, ok)

	_, ok = store.Get(fresh.code)
	assert.True(t, ok)
}

func TestOperationsRefreshLastActive(t *testing.T) {
	store := newRoomStore(0, nil)
	room := store.CreateRoom("host")

	room.mu.Lock()
	room.lastActive = time.Now().Add(-2 * time.Hour)
	room.mu.Unlock()

	require.NoError(t, room.Join("a", "Alice"))

	removed := store.evictIdle(time.Now().Add(-time.Hour))
	assert.Zero(t, removed)
}
