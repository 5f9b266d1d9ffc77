// Package hub provides a thread-safe websocket broadcast hub for the
// preview and status streams. Slow clients are dropped rather than
// buffered: the preview contract is last-writer-wins with no backlog.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/kindredlens/go-wildeye/internal/log"
)

// Hub maintains the set of active clients and fans messages out to
// them.
type Hub struct {
	name string

	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// New creates a hub; name appears in logs only.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run is the hub's main loop; call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("hub client connected", "hub", h.name, "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client can't keep up with the frame rate.
					close(client.send)
					delete(h.clients, client)
					log.Debug("hub dropped slow client", "hub", h.name)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for every client; if the hub itself is
// backed up the message is dropped, never blocking the caller.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

// BroadcastJSON encodes v and broadcasts it as a text message.
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data such as preview JPEG frames.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
