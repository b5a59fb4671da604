// Package wshub is a room-scoped WebSocket fanout: browser connections join
// the room named by their session ID and receive outbound chat replies pushed
// by the HTTP layer.
package wshub

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 5 * time.Second

// Hub tracks live connections per room.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*websocket.Conn]struct{}
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*websocket.Conn]struct{}),
		logger: logger,
	}
}

// Join registers a connection in a room.
func (h *Hub) Join(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[room]
	if !ok {
		conns = make(map[*websocket.Conn]struct{})
		h.rooms[room] = conns
	}
	conns[conn] = struct{}{}
}

// Leave removes a connection, dropping the room when it empties.
func (h *Hub) Leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast writes v as JSON to every connection in the room. Slow or dead
// connections are skipped after the write timeout; delivery is best-effort.
func (h *Hub) Broadcast(ctx context.Context, room string, v interface{}) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
		if err := wsjson.Write(writeCtx, conn, v); err != nil {
			h.logger.WithError(err).WithField("room", room).Debug("WebSocket write failed")
		}
		cancel()
	}
}

// RoomSize returns the number of live connections in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
