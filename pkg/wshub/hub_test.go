package wshub

import (
	"context"
	"testing"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestHub() *Hub {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return New(logger)
}

func TestJoinLeave(t *testing.T) {
	hub := newTestHub()
	first := &websocket.Conn{}
	second := &websocket.Conn{}

	hub.Join("session-1", first)
	hub.Join("session-1", second)
	assert.Equal(t, 2, hub.RoomSize("session-1"))

	// Joining the same connection again is a no-op.
	hub.Join("session-1", first)
	assert.Equal(t, 2, hub.RoomSize("session-1"))

	hub.Leave("session-1", first)
	assert.Equal(t, 1, hub.RoomSize("session-1"))

	// The room is dropped once the last connection leaves.
	hub.Leave("session-1", second)
	assert.Equal(t, 0, hub.RoomSize("session-1"))
}

func TestRoomsAreIsolated(t *testing.T) {
	hub := newTestHub()
	hub.Join("session-1", &websocket.Conn{})
	hub.Join("session-2", &websocket.Conn{})

	assert.Equal(t, 1, hub.RoomSize("session-1"))
	assert.Equal(t, 1, hub.RoomSize("session-2"))
	assert.Equal(t, 0, hub.RoomSize("session-3"))
}

func TestLeaveUnknownRoom(t *testing.T) {
	hub := newTestHub()
	hub.Leave("ghost", &websocket.Conn{})
	assert.Equal(t, 0, hub.RoomSize("ghost"))
}

func TestBroadcastEmptyRoom(t *testing.T) {
	hub := newTestHub()
	// Nothing to deliver; must not panic or block.
	hub.Broadcast(context.Background(), "empty", map[string]string{"response": "hi"})
}
