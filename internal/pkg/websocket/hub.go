package websocket

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Event names exchanged over a connection
const (
	EventJoinRoom     = "join_room"
	EventMessage      = "message"
	EventTyping       = "typing"
	EventJoinCallRoom = "join-call-room"
	EventUserJoined   = "user-joined"
	EventSignal       = "signal"
)

// Event is the envelope for every inbound relay event. Message and Signal
// payloads are opaque to the hub and relayed verbatim.
type Event struct {
	Event    string          `json:"event"`
	RoomID   string          `json:"roomId,omitempty"`
	UserID   int64           `json:"userId,omitempty"`
	IsTyping bool            `json:"isTyping,omitempty"`
	Message  json.RawMessage `json:"message,omitempty"`
	Signal   json.RawMessage `json:"signal,omitempty"`
	To       string          `json:"to,omitempty"`
}

// Outbound event shapes. user-joined carries the joining connection's id
// so the receiving peer can address signaling back to it; signal gains a
// "from" field for the same reason.
type messageOut struct {
	Event   string          `json:"event"`
	RoomID  string          `json:"roomId"`
	Message json.RawMessage `json:"message"`
}

type typingOut struct {
	Event    string `json:"event"`
	RoomID   string `json:"roomId"`
	UserID   int64  `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type userJoinedOut struct {
	Event  string `json:"event"`
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

type signalOut struct {
	Event  string          `json:"event"`
	RoomID string          `json:"roomId"`
	Signal json.RawMessage `json:"signal"`
	From   string          `json:"from"`
}

type clientEvent struct {
	client *Client
	event  *Event
}

type roomBroadcast struct {
	roomID  string
	payload []byte
}

// Hub maintains room membership for the active connections and relays
// chat and call-signaling events between them. It holds no durable state:
// membership lives only as long as the connection, and undeliverable
// events are dropped. Persistence is the message store's job, reached
// through the HTTP path independently of the relay.
type Hub struct {
	// Connections per room id
	rooms map[string]map[*Client]bool

	// All registered connections by connection id, for unicast signaling
	conns map[string]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Inbound events from client read pumps
	events chan *clientEvent

	// Server-originated room broadcasts (e.g. after message persistence)
	broadcasts chan *roomBroadcast

	// Guards rooms/conns for reads outside the run loop
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		conns:      make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *clientEvent),
		broadcasts: make(chan *roomBroadcast, 64),
		logger:     logger,
	}
}

// Run starts the hub loop. All membership mutations and relays are
// serialized through it, which is what gives one room its per-room
// delivery ordering.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case ev := <-h.events:
			h.handleEvent(ev.client, ev.event)

		case b := <-h.broadcasts:
			h.relayToRoom(b.roomID, b.payload, nil)
		}
	}
}

// BroadcastToRoom delivers a server-originated payload to every current
// member of a room. Fire and forget: if nobody is in the room the payload
// is dropped.
func (h *Hub) BroadcastToRoom(roomID string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().Err(err).Str("roomID", roomID).Msg("Failed to marshal room broadcast")
		return
	}
	h.broadcasts <- &roomBroadcast{roomID: roomID, payload: data}
}

// RoomSize returns the number of connections currently in a room
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// ChatRoomID derives the deterministic room id both participants of a
// doubt conversation compute independently: min(idA,idB)_max(idA,idB)_doubtId
func ChatRoomID(userA, userB, doubtID int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%d_%d_%d", userA, userB, doubtID)
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.conns[client.ID] = client
	h.mu.Unlock()

	h.logger.Info().
		Str("connID", client.ID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

// removeClient clears a connection's room memberships and drops it.
// Idempotent: a slow client evicted by the relay loop may also be
// unregistered by its read pump afterwards.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[client.ID]; !ok {
		return
	}
	delete(h.conns, client.ID)

	for roomID := range client.rooms {
		if members, ok := h.rooms[roomID]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	close(client.send)

	h.logger.Info().
		Str("connID", client.ID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

func (h *Hub) handleEvent(c *Client, ev *Event) {
	switch ev.Event {
	case EventJoinRoom:
		h.joinRoom(c, ev.RoomID)

	case EventJoinCallRoom:
		h.joinCallRoom(c, ev.RoomID)

	case EventMessage:
		data, err := json.Marshal(messageOut{Event: EventMessage, RoomID: ev.RoomID, Message: ev.Message})
		if err != nil {
			h.logger.Error().Err(err).Str("roomID", ev.RoomID).Msg("Failed to marshal message relay")
			return
		}
		h.relayToRoom(ev.RoomID, data, c)

	case EventTyping:
		// The sending connection's identity wins over whatever the
		// payload claims
		data, err := json.Marshal(typingOut{Event: EventTyping, RoomID: ev.RoomID, UserID: c.userID, IsTyping: ev.IsTyping})
		if err != nil {
			h.logger.Error().Err(err).Str("roomID", ev.RoomID).Msg("Failed to marshal typing relay")
			return
		}
		h.relayToRoom(ev.RoomID, data, c)

	case EventSignal:
		h.forwardSignal(c, ev)

	default:
		h.logger.Debug().
			Str("event", ev.Event).
			Str("connID", c.ID).
			Msg("Dropping unknown relay event")
	}
}

// joinRoom adds the connection to a room. Unconditional and idempotent;
// there is no capacity limit and no acknowledgement.
func (h *Hub) joinRoom(c *Client, roomID string) {
	if roomID == "" {
		return
	}

	h.mu.Lock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	c.rooms[roomID] = true
	h.mu.Unlock()

	h.logger.Debug().
		Str("connID", c.ID).
		Str("roomID", roomID).
		Msg("Client joined room")
}

// joinCallRoom notifies every existing member of the new member's
// connection id before adding it, so the pre-existing side can initiate
// the peer negotiation. There is no symmetric notification on leave.
func (h *Hub) joinCallRoom(c *Client, roomID string) {
	if roomID == "" {
		return
	}

	data, err := json.Marshal(userJoinedOut{Event: EventUserJoined, RoomID: roomID, UserID: c.ID})
	if err != nil {
		h.logger.Error().Err(err).Str("roomID", roomID).Msg("Failed to marshal user-joined")
		return
	}
	h.relayToRoom(roomID, data, c)
	h.joinRoom(c, roomID)
}

// forwardSignal unicasts an opaque signaling payload to one connection.
// The hub never inspects the payload.
func (h *Hub) forwardSignal(c *Client, ev *Event) {
	h.mu.RLock()
	target, ok := h.conns[ev.To]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug().
			Str("to", ev.To).
			Str("connID", c.ID).
			Msg("Dropping signal for unknown connection")
		return
	}

	data, err := json.Marshal(signalOut{Event: EventSignal, RoomID: ev.RoomID, Signal: ev.Signal, From: c.ID})
	if err != nil {
		h.logger.Error().Err(err).Str("roomID", ev.RoomID).Msg("Failed to marshal signal relay")
		return
	}
	h.deliver(target, data)
}

// relayToRoom sends a payload to every member of a room except the
// originator. Empty rooms drop the payload silently.
func (h *Hub) relayToRoom(roomID string, data []byte, except *Client) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for member := range h.rooms[roomID] {
		if member != except {
			members = append(members, member)
		}
	}
	h.mu.RUnlock()

	for _, member := range members {
		h.deliver(member, data)
	}
}

// deliver queues a payload on the client's send buffer. A full buffer
// means the peer is too slow or gone; it gets evicted rather than
// blocking the relay loop.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.logger.Warn().
			Str("connID", c.ID).
			Int64("userID", c.userID).
			Msg("Send buffer full, evicting client")
		h.removeClient(c)
	}
}
