package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"padayatra/pkg/logger"
)

// Hub fans live updates out to connected dashboards and receives position
// reports from devices. Rooms are keyed by tracking scope ("all",
// "user:<id>", "group:<id>"); a dashboard joins the scopes it watches.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	mutex      sync.RWMutex

	positionSink func(PositionUpdate)
	log          *logger.Logger
}

type Message struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// PositionUpdate is a device-reported position as it arrives over the
// socket, before any server-side validation.
type PositionUpdate struct {
	UserID    string  `json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		log:        log,
	}
}

// SetPositionSink wires device position reports to the journey pipeline.
// Must be set before Run.
func (h *Hub) SetPositionSink(sink func(PositionUpdate)) {
	h.positionSink = sink
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.log.WithUserID(client.UserID).WithField("role", client.Role).Debug("WebSocket client registered")

	// Everyone gets their personal room so targeted messages work.
	h.joinRoom(client, "user:"+client.UserID)

	welcome := Message{
		Type:      "welcome",
		UserID:    client.UserID,
		Timestamp: nowMillis(),
		Data:      map[string]interface{}{"message": "Connected"},
	}
	h.sendToClient(client, welcome)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.removeLocked(client) {
		h.log.WithUserID(client.UserID).Debug("WebSocket client unregistered")
	}
}

// removeLocked detaches a client from every room it joined before closing its
// send channel. The order matters: a client still reachable through any room
// after its channel closed would panic the next fanout. Reports whether the
// client was still registered. Caller holds h.mutex.
func (h *Hub) removeLocked(client *Client) bool {
	if _, ok := h.clients[client]; !ok {
		return false
	}
	delete(h.clients, client)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	client.rooms = make(map[string]bool)

	close(client.send)
	return true
}

// dropSlowLocked evicts a client whose send buffer is full; its writePump
// sees the closed channel and shuts the connection down.
func (h *Hub) dropSlowLocked(client *Client) {
	if h.removeLocked(client) {
		h.log.WithUserID(client.UserID).Warn("Dropping slow WebSocket client")
	}
}

func (h *Hub) broadcastMessage(message []byte) {
	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		h.log.WithError(err).Warn("Dropping malformed broadcast message")
		return
	}

	if msg.RoomID != "" {
		h.SendToRoom(msg.RoomID, msg)
	} else {
		h.sendToAllClients(msg)
	}
}

func (h *Hub) sendToAllClients(message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	data, _ := json.Marshal(message)
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			h.dropSlowLocked(client)
		}
	}
}

func (h *Hub) SendToRoom(roomID string, message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, _ := json.Marshal(message)
	for client := range room {
		select {
		case client.send <- data:
		default:
			h.dropSlowLocked(client)
		}
	}
}

func (h *Hub) sendToClient(client *Client, message Message) {
	data, _ := json.Marshal(message)
	select {
	case client.send <- data:
	default:
		h.dropSlowLocked(client)
	}
}

func (h *Hub) SendToUser(userID string, message Message) {
	h.SendToRoom("user:"+userID, message)
}

// BroadcastLocation pushes a derived location state to every scope room it
// belongs to. data is marshaled as-is, so callers pass the dashboard-ready
// record.
func (h *Hub) BroadcastLocation(userID, groupID string, data interface{}) {
	message := Message{
		Type:      "location",
		UserID:    userID,
		Timestamp: nowMillis(),
		Data:      data,
	}

	h.SendToRoom("all", message)
	h.SendToRoom("user:"+userID, message)
	if groupID != "" {
		h.SendToRoom("group:"+groupID, message)
	}
}

// BroadcastStats refreshes dashboard summary counters on the global room.
func (h *Hub) BroadcastStats(stats interface{}) {
	h.SendToRoom("all", Message{
		Type:      "stats",
		Timestamp: nowMillis(),
		Data:      stats,
	})
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.joinRoom(client, roomID)
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
