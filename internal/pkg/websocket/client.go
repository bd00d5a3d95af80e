package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16384

	// Outbound buffer capacity per connection
	sendBufferSize = 256
)

// Client is a middleman between a websocket connection and the hub.
// ID is the connection identity used for call signaling; one user may
// hold several connections at once.
type Client struct {
	ID     string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID int64

	// Rooms this connection has joined, maintained by the hub loop
	rooms map[string]bool
}

// NewClient creates a client for an upgraded connection
func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		ID:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		rooms:  make(map[string]bool),
	}
}

// UserID returns the authenticated user behind this connection
func (c *Client) UserID() int64 {
	return c.userID
}

// readPump pumps events from the websocket connection to the hub.
// Malformed frames are dropped; the connection stays up.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn().Err(err).Str("connID", c.ID).Msg("Unexpected websocket close")
			}
			break
		}

		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.hub.logger.Debug().Err(err).Str("connID", c.ID).Msg("Dropping malformed relay frame")
			continue
		}
		c.hub.events <- &clientEvent{client: c, event: &ev}
	}
}

// writePump pumps payloads from the hub to the websocket connection.
// One writePump per connection is the only writer on it.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start registers the client with the hub and launches its pumps
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	go c.readPump()
}
