package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

const (
	// RoleDevice is a pilgrim's phone reporting positions.
	RoleDevice = "device"
	// RoleDashboard is an admin view subscribing to scope rooms.
	RoleDashboard = "dashboard"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Configure properly in production
	},
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID string
	Role   string
	rooms  map[string]bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, role string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		UserID: userID,
		Role:   role,
		rooms:  make(map[string]bool),
	}
}

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
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.WithUserID(c.UserID).WithError(err).Warn("WebSocket read failed")
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush anything queued behind this write.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		c.hub.log.WithUserID(c.UserID).WithError(err).Warn("Dropping malformed client message")
		return
	}

	switch msg.Type {
	case "subscribe":
		if roomID := roomFromData(msg.Data); roomID != "" {
			c.hub.JoinRoom(c, roomID)
		}

	case "unsubscribe":
		if roomID := roomFromData(msg.Data); roomID != "" {
			c.hub.LeaveRoom(c, roomID)
		}

	case "position_update":
		// Device ingest path. The identity on the socket wins over
		// whatever user_id the payload claims.
		if c.Role != RoleDevice || c.hub.positionSink == nil {
			return
		}
		var update PositionUpdate
		data, err := json.Marshal(msg.Data)
		if err != nil {
			return
		}
		if err := json.Unmarshal(data, &update); err != nil {
			c.hub.log.WithUserID(c.UserID).WithError(err).Warn("Dropping malformed position payload")
			return
		}
		update.UserID = c.UserID
		if update.Timestamp == 0 {
			update.Timestamp = nowMillis()
		}
		c.hub.positionSink(update)

	default:
		c.hub.log.WithUserID(c.UserID).WithField("message_type", msg.Type).Debug("Ignoring unknown message type")
	}
}

func roomFromData(data interface{}) string {
	fields, ok := data.(map[string]interface{})
	if !ok {
		return ""
	}
	roomID, _ := fields["room_id"].(string)
	return roomID
}
