package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Connections are authenticated by JWT, not by origin
		return true
	},
}

// Handler upgrades authenticated HTTP requests to relay connections
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// HandleConnection godoc
// @Summary Establish a WebSocket connection for real-time chat and call signaling
// @Description Upgrades the HTTP connection to a WebSocket carrying join_room, message, typing, join-call-room and signal events
// @Tags realtime
// @Security BearerAuth
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} gin.H "Unauthorized: JWT token missing or invalid"
// @Router /ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	// Set by the auth middleware
	userIDInterface, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	userID, ok := userIDInterface.(int64)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := NewClient(h.hub, conn, userID)
	client.Start()
}
