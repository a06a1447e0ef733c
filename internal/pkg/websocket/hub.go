package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yigit/shelfclub/internal/app/models"
)

// DefaultEventBuffer is the number of events Publish queues before dropping
const DefaultEventBuffer = 256

// Hub maintains the set of connected clients per club and fans out club events
type Hub struct {
	// Registered clients organized by club ID
	clients map[int64]map[*Client]bool

	// Events waiting to be broadcast
	events chan models.ClubEvent

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBuffer
	}
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		events:     make(chan models.ClubEvent, bufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.events:
			h.broadcastEvent(event)
		}
	}
}

// Publish queues a committed club event for delivery. It never blocks; when
// the queue is full the event is dropped.
func (h *Hub) Publish(event models.ClubEvent) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn().
			Int64("clubID", event.ClubID).
			Str("eventType", string(event.Type)).
			Msg("Event queue full, dropping club event")
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.clubID]; !ok {
		h.clients[client.clubID] = make(map[*Client]bool)
	}
	h.clients[client.clubID][client] = true

	h.logger.Info().
		Int64("clubID", client.clubID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.clients[client.clubID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.clubID)
	}

	h.logger.Info().
		Int64("clubID", client.clubID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

// broadcastEvent sends an event to every client of its club. Clients whose
// send buffer is full are disconnected.
func (h *Hub) broadcastEvent(event models.ClubEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("clubID", event.ClubID).
			Str("eventType", string(event.Type)).
			Msg("Failed to marshal club event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[event.ClubID]
	if !ok {
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().
				Int64("clubID", event.ClubID).
				Int64("userID", client.userID).
				Msg("Client too slow, disconnecting")
			h.removeLocked(client)
		}
	}

	h.logger.Debug().
		Int64("clubID", event.ClubID).
		Str("eventType", string(event.Type)).
		Int("clientCount", len(clients)).
		Msg("Club event broadcast")
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// ClientCount returns the number of connected clients for a club
func (h *Hub) ClientCount(clubID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clubID])
}
