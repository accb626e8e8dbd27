package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"padayatra/pkg/logger"
)

type Handler struct {
	hub *Hub
}

func NewHandler(log *logger.Logger) *Handler {
	hub := NewHub(log)
	go hub.Run()

	return &Handler{
		hub: hub,
	}
}

// HandleWebSocket upgrades the connection. Identity comes from query
// parameters: user_id is the Mongo ID of the connecting user, role is
// "device" or "dashboard" (default device).
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("user_id")
	if _, err := primitive.ObjectIDFromHex(userID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	role := c.DefaultQuery("role", RoleDevice)
	if role != RoleDevice && role != RoleDashboard {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, userID, role)
	h.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Handler) SendUserNotification(userID string, notificationType string, data map[string]interface{}) {
	h.hub.SendToUser(userID, Message{
		Type:      notificationType,
		UserID:    userID,
		Timestamp: nowMillis(),
		Data:      data,
	})
}

func (h *Handler) GetHub() *Hub {
	return h.hub
}
