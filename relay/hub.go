// Package relay broadcasts delivery-location updates to the subscribers of
// one order over WebSocket connections.
package relay

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Hub keeps one room of connected clients per order
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   logrus.FieldLogger
}

// NewHub creates an empty hub
func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.room]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.room] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	room, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.room)
	}
	c.closeSend()
}

// Broadcast queues msg for every client in room. A client whose buffer is
// full is disconnected.
func (h *Hub) Broadcast(room string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[room] {
		select {
		case c.send <- msg:
		default:
			h.log.WithFields(logrus.Fields{"room": room, "user_id": c.member.UserID}).
				Warn("Dropping slow tracking subscriber")
			h.removeLocked(c)
		}
	}
}

// Count returns the number of clients in room
func (h *Hub) Count(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
