package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type string `json:"type"`
	// Station narrows delivery to displays of that station; empty reaches
	// every client of the outlet.
	Station string          `json:"station,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// outletEvent is an internal struct for routing events to specific outlets
type outletEvent struct {
	OutletID uuid.UUID
	Event    Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by outlet ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *outletEvent
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *outletEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop until ctx is cancelled, then disconnects
// every client. Call it as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for outletID, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, outletID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.outletID] == nil {
				h.rooms[client.outletID] = make(map[*Client]bool)
			}
			h.rooms[client.outletID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.OutletID] {
				if !client.wants(event.Event) {
					continue
				}
				select {
				case client.send <- message:
				default:
					// Slow client: disconnect rather than stall the room
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client and closes its send channel. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.outletID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.outletID)
	}
}

// BroadcastToOutlet queues an event for all clients subscribed to an outlet.
// It waits for room in the broadcast buffer until ctx is done.
func (h *Hub) BroadcastToOutlet(ctx context.Context, outletID uuid.UUID, event Event) error {
	select {
	case h.broadcast <- &outletEvent{OutletID: outletID, Event: event}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clients returns the number of connected clients of an outlet.
func (h *Hub) Clients(outletID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[outletID])
}
