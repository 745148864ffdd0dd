package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"campaign-dashboard/models"
)

// WebSocketHub pushes dataset reloads and delivery workflow events to
// connected dashboard clients.
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan models.BroadcastMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	mutex      sync.Mutex
}

// WebSocketClient represents a WebSocket client connection
type WebSocketClient struct {
	hub    *WebSocketHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// NewWebSocketHub creates a new WebSocket hub
func NewWebSocketHub() *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan models.BroadcastMessage),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
	}
}

// Start runs the hub loop; call it from a goroutine.
func (h *WebSocketHub) Start() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Infof("WebSocket client registered for user %s", client.userID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			log.Infof("WebSocket client unregistered for user %s", client.userID)

		case message := <-h.broadcast:
			payload := h.serializeMessage(message)
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Stop disconnects every client.
func (h *WebSocketHub) Stop() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// RegisterClient registers a new WebSocket client and starts its pumps.
func (h *WebSocketHub) RegisterClient(conn *websocket.Conn, userID string) {
	client := &WebSocketClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

// BroadcastDatasetReloaded announces a fresh snapshot.
func (h *WebSocketHub) BroadcastDatasetReloaded(rowCount int) {
	h.broadcast <- models.BroadcastMessage{
		Type:      "dataset_reloaded",
		Data:      map[string]int{"rows": rowCount},
		Timestamp: time.Now().UTC(),
	}
}

// BroadcastCampaignEvent announces a delivery workflow transition.
func (h *WebSocketHub) BroadcastCampaignEvent(event models.CampaignEvent) {
	h.broadcast <- models.BroadcastMessage{
		Type:      "campaign_event",
		Data:      event,
		Timestamp: time.Now().UTC(),
	}
}

// GetConnectedClientsCount returns the number of connected clients.
func (h *WebSocketHub) GetConnectedClientsCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *WebSocketHub) serializeMessage(message models.BroadcastMessage) []byte {
	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to serialize broadcast message: %v", err)
		return []byte("{}")
	}
	return data
}

// readPump pumps messages from the WebSocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("WebSocket read error for user %s: %v", c.userID, err)
			}
			break
		}
		// Clients only listen; inbound messages are ignored.
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
