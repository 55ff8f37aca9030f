package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/metrics"
)

const sendBuffer = 256

// Client is one websocket session. Send is closed by the hub when the session is removed.
type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte

	closed bool // guarded by Hub.mu
}

func NewClient(userID uuid.UUID) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// Envelope is the wire format for every socket event in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Emitter delivers an event to every session in a user's room.
type Emitter interface {
	Emit(ctx context.Context, userID uuid.UUID, event string, data interface{}) error
}

type hubEvent struct {
	client   *Client
	register bool
}

// Hub tracks sessions and the per-user rooms they joined.
// Register and unregister share one channel so Run sees them in the order they were sent.
type Hub struct {
	clients map[string]*Client
	rooms   map[uuid.UUID]map[string]*Client
	events  chan hubEvent
	quit    chan struct{}
	mu      sync.RWMutex
	log     zerolog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[uuid.UUID]map[string]*Client),
		events:  make(chan hubEvent, 256),
		quit:    make(chan struct{}),
		log:     logger.WithComponent("hub"),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.events <- hubEvent{client: client, register: true}
}

func (h *Hub) UnregisterClient(client *Client) {
	h.events <- hubEvent{client: client}
}

// JoinRoom puts the session into its user's room; only room members receive events.
// A session the hub already closed is not added.
func (h *Hub) JoinRoom(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return false
	}
	room, ok := h.rooms[client.UserID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[client.UserID] = room
	}
	room[client.ID] = client
	return true
}

// SendToUser writes payload to every session in the user's room.
// A session whose buffer is full is dropped instead of blocking the sender.
func (h *Hub) SendToUser(userID uuid.UUID, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for id, client := range h.rooms[userID] {
		select {
		case client.Send <- payload:
			delivered++
		default:
			h.log.Warn().Str("client_id", id).Str("user_id", userID.String()).Msg("dropping slow consumer")
			h.removeLocked(client)
		}
	}
	return delivered
}

// SendToClient writes to a single session unless the hub already closed it.
func (h *Hub) SendToClient(client *Client, payload []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.closed {
		return false
	}
	select {
	case client.Send <- payload:
		return true
	default:
		return false
	}
}

// Emit delivers to local sessions only.
func (h *Hub) Emit(_ context.Context, userID uuid.UUID, event string, data interface{}) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}
	h.SendToUser(userID, payload)
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Run() {
	for {
		select {
		case ev := <-h.events:
			h.mu.Lock()
			if ev.register {
				h.addLocked(ev.client)
			} else {
				h.removeLocked(ev.client)
			}
			h.mu.Unlock()

		case <-h.quit:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) addLocked(client *Client) {
	if client.closed {
		return
	}
	if _, ok := h.clients[client.ID]; ok {
		return
	}
	h.clients[client.ID] = client
	metrics.WSConnections.Inc()
	h.log.Debug().Str("client_id", client.ID).Str("user_id", client.UserID.String()).Msg("client registered")
}

// removeLocked closes Send exactly once, whether or not Run has seen the registration yet.
func (h *Hub) removeLocked(client *Client) {
	if room, ok := h.rooms[client.UserID]; ok {
		delete(room, client.ID)
		if len(room) == 0 {
			delete(h.rooms, client.UserID)
		}
	}
	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		metrics.WSConnections.Dec()
	}
	if !client.closed {
		client.closed = true
		close(client.Send)
		h.log.Debug().Str("client_id", client.ID).Msg("client unregistered")
	}
}

func Encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}
