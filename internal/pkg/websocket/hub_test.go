package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client without an underlying connection. The
// hub only touches ID, userID, rooms and the send channel, so the tests
// can drive its internals directly and read deliveries off send.
func newTestClient(h *Hub, id string, userID int64) *Client {
	return &Client{
		ID:     id,
		hub:    h,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		rooms:  make(map[string]bool),
	}
}

func newTestHub() *Hub {
	return NewHub(zerolog.Nop())
}

func receive(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case data := <-c.send:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a delivery")
		return nil
	}
}

func assertNothingDelivered(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected delivery: %s", data)
	default:
	}
}

func TestChatRoomID(t *testing.T) {
	assert.Equal(t, "3_7_42", ChatRoomID(3, 7, 42))
	assert.Equal(t, "3_7_42", ChatRoomID(7, 3, 42), "participant order does not matter")
	assert.Equal(t, "5_5_1", ChatRoomID(5, 5, 1))
}

func TestMessageRelayExcludesSender(t *testing.T) {
	h := newTestHub()
	sender := newTestClient(h, "conn-a", 1)
	peer := newTestClient(h, "conn-b", 2)
	h.registerClient(sender)
	h.registerClient(peer)
	h.joinRoom(sender, "1_2_9")
	h.joinRoom(peer, "1_2_9")

	h.handleEvent(sender, &Event{
		Event:   EventMessage,
		RoomID:  "1_2_9",
		Message: json.RawMessage(`{"text":"hi"}`),
	})

	var out messageOut
	require.NoError(t, json.Unmarshal(receive(t, peer), &out))
	assert.Equal(t, EventMessage, out.Event)
	assert.Equal(t, "1_2_9", out.RoomID)
	assert.JSONEq(t, `{"text":"hi"}`, string(out.Message))

	assertNothingDelivered(t, sender)
}

func TestRelayScopedToRoom(t *testing.T) {
	h := newTestHub()
	sender := newTestClient(h, "conn-a", 1)
	peer := newTestClient(h, "conn-b", 2)
	outsider := newTestClient(h, "conn-c", 3)
	h.registerClient(sender)
	h.registerClient(peer)
	h.registerClient(outsider)
	h.joinRoom(sender, "1_2_9")
	h.joinRoom(peer, "1_2_9")
	h.joinRoom(outsider, "1_3_9")

	h.handleEvent(sender, &Event{Event: EventMessage, RoomID: "1_2_9", Message: json.RawMessage(`"x"`)})

	receive(t, peer)
	assertNothingDelivered(t, outsider)
}

func TestMessageToEmptyRoomDropped(t *testing.T) {
	h := newTestHub()
	sender := newTestClient(h, "conn-a", 1)
	h.registerClient(sender)

	// Sender never joined and nobody else is there; nothing happens
	h.handleEvent(sender, &Event{Event: EventMessage, RoomID: "1_2_9", Message: json.RawMessage(`"x"`)})
	assertNothingDelivered(t, sender)
}

func TestTypingUsesConnectionIdentity(t *testing.T) {
	h := newTestHub()
	sender := newTestClient(h, "conn-a", 7)
	peer := newTestClient(h, "conn-b", 2)
	h.registerClient(sender)
	h.registerClient(peer)
	h.joinRoom(sender, "2_7_1")
	h.joinRoom(peer, "2_7_1")

	// The frame claims to be user 999; the connection says 7
	h.handleEvent(sender, &Event{Event: EventTyping, RoomID: "2_7_1", UserID: 999, IsTyping: true})

	var out typingOut
	require.NoError(t, json.Unmarshal(receive(t, peer), &out))
	assert.Equal(t, int64(7), out.UserID)
	assert.True(t, out.IsTyping)
}

func TestJoinRoomIdempotent(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h, "conn-a", 1)
	h.registerClient(c)

	h.joinRoom(c, "1_2_9")
	h.joinRoom(c, "1_2_9")
	assert.Equal(t, 1, h.RoomSize("1_2_9"))

	h.joinRoom(c, "")
	assert.Equal(t, 0, h.RoomSize(""), "empty room ids are ignored")
}

func TestJoinCallRoomNotifiesExistingMembers(t *testing.T) {
	h := newTestHub()
	first := newTestClient(h, "conn-a", 1)
	second := newTestClient(h, "conn-b", 2)
	h.registerClient(first)
	h.registerClient(second)

	// First into the room hears nothing
	h.handleEvent(first, &Event{Event: EventJoinCallRoom, RoomID: "call-9"})
	assertNothingDelivered(t, first)

	// Second joiner is announced to the first, with its connection id
	h.handleEvent(second, &Event{Event: EventJoinCallRoom, RoomID: "call-9"})

	var out userJoinedOut
	require.NoError(t, json.Unmarshal(receive(t, first), &out))
	assert.Equal(t, EventUserJoined, out.Event)
	assert.Equal(t, "call-9", out.RoomID)
	assert.Equal(t, "conn-b", out.UserID)

	assertNothingDelivered(t, second)
	assert.Equal(t, 2, h.RoomSize("call-9"))
}

func TestSignalUnicast(t *testing.T) {
	h := newTestHub()
	caller := newTestClient(h, "conn-a", 1)
	callee := newTestClient(h, "conn-b", 2)
	bystander := newTestClient(h, "conn-c", 3)
	h.registerClient(caller)
	h.registerClient(callee)
	h.registerClient(bystander)

	h.handleEvent(caller, &Event{
		Event:  EventSignal,
		RoomID: "call-9",
		Signal: json.RawMessage(`{"type":"offer"}`),
		To:     "conn-b",
	})

	var out signalOut
	require.NoError(t, json.Unmarshal(receive(t, callee), &out))
	assert.Equal(t, EventSignal, out.Event)
	assert.Equal(t, "conn-a", out.From, "receiver learns who to answer")
	assert.JSONEq(t, `{"type":"offer"}`, string(out.Signal))

	assertNothingDelivered(t, bystander)
}

func TestSignalToUnknownConnectionDropped(t *testing.T) {
	h := newTestHub()
	caller := newTestClient(h, "conn-a", 1)
	h.registerClient(caller)

	h.handleEvent(caller, &Event{Event: EventSignal, To: "gone", Signal: json.RawMessage(`{}`)})
	assertNothingDelivered(t, caller)
}

func TestUnknownEventDropped(t *testing.T) {
	h := newTestHub()
	a := newTestClient(h, "conn-a", 1)
	b := newTestClient(h, "conn-b", 2)
	h.registerClient(a)
	h.registerClient(b)
	h.joinRoom(a, "r")
	h.joinRoom(b, "r")

	h.handleEvent(a, &Event{Event: "self-destruct", RoomID: "r"})
	assertNothingDelivered(t, b)
}

func TestRemoveClientCleansUp(t *testing.T) {
	h := newTestHub()
	c := newTestClient(h, "conn-a", 1)
	peer := newTestClient(h, "conn-b", 2)
	h.registerClient(c)
	h.registerClient(peer)
	h.joinRoom(c, "1_2_9")
	h.joinRoom(c, "call-9")
	h.joinRoom(peer, "1_2_9")

	h.removeClient(c)

	assert.Equal(t, 1, h.RoomSize("1_2_9"))
	assert.Equal(t, 0, h.RoomSize("call-9"), "emptied rooms are deleted")

	_, open := <-c.send
	assert.False(t, open, "send channel is closed on removal")

	// Removing again is a no-op
	h.removeClient(c)

	// The remaining member no longer hears from the removed connection
	h.handleEvent(c, &Event{Event: EventSignal, To: "conn-a", Signal: json.RawMessage(`{}`)})
	assertNothingDelivered(t, peer)
}

func TestSlowClientEvicted(t *testing.T) {
	h := newTestHub()
	sender := newTestClient(h, "conn-a", 1)
	slow := newTestClient(h, "conn-b", 2)
	slow.send = make(chan []byte, 1)
	h.registerClient(sender)
	h.registerClient(slow)
	h.joinRoom(sender, "r")
	h.joinRoom(slow, "r")

	// First relay fills the one-slot buffer, second one overflows it
	h.handleEvent(sender, &Event{Event: EventMessage, RoomID: "r", Message: json.RawMessage(`"one"`)})
	h.handleEvent(sender, &Event{Event: EventMessage, RoomID: "r", Message: json.RawMessage(`"two"`)})

	assert.Equal(t, 1, h.RoomSize("r"), "the slow member was evicted")

	// The buffered payload is still readable, then the channel closes
	receive(t, slow)
	_, open := <-slow.send
	assert.False(t, open)
}

func TestBroadcastToRoom(t *testing.T) {
	h := newTestHub()
	go h.Run()

	a := newTestClient(h, "conn-a", 1)
	b := newTestClient(h, "conn-b", 2)
	h.register <- a
	h.register <- b
	h.events <- &clientEvent{client: a, event: &Event{Event: EventJoinRoom, RoomID: "1_2_9"}}
	h.events <- &clientEvent{client: b, event: &Event{Event: EventJoinRoom, RoomID: "1_2_9"}}

	h.BroadcastToRoom("1_2_9", map[string]string{"event": EventMessage, "roomId": "1_2_9"})

	// Server-originated broadcasts reach every member, sender included
	for _, c := range []*Client{a, b} {
		var out map[string]string
		require.NoError(t, json.Unmarshal(receive(t, c), &out))
		assert.Equal(t, EventMessage, out["event"])
	}

	// A broadcast to a room nobody is in is silently dropped
	h.BroadcastToRoom("9_9_9", map[string]string{"event": EventMessage})
	assertNothingDelivered(t, a)
	assertNothingDelivered(t, b)
}
