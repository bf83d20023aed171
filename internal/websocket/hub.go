package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/tracklab/studio-api/internal/model"
)

// Client represents a WebSocket client watching one track
type Client struct {
	TrackID string
	Conn    *websocket.Conn
	Send    chan []byte
}

// Hub maintains active WebSocket connections grouped by track. It is the
// server-side stand-in for client toasts/haptics: task outcomes observed
// by the completion bridge are pushed to every watcher of the track.
type Hub struct {
	// Clients grouped by track ID
	clients map[string]map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Broadcast messages to track watchers
	broadcast chan *BroadcastMessage

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	TrackID string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.TrackID] == nil {
				h.clients[client.TrackID] = make(map[*Client]bool)
			}
			h.clients[client.TrackID][client] = true
			h.mu.Unlock()
			log.Printf("Client registered for track %s", client.TrackID)

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.TrackID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.Send)
					if len(clients) == 0 {
						delete(h.clients, client.TrackID)
					}
				}
			}
			h.mu.Unlock()
			log.Printf("Client unregistered from track %s", client.TrackID)

		case msg := <-h.broadcast:
			h.mu.RLock()
			if clients, ok := h.clients[msg.TrackID]; ok {
				for client := range clients {
					select {
					case client.Send <- msg.Message:
					default:
						close(client.Send)
						delete(clients, client)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastTaskUpdate pushes a task status change to all track watchers
func (h *Hub) BroadcastTaskUpdate(trackID string, event model.TaskEvent) {
	msg := model.WSTaskUpdateMessage{
		Type:           model.WSMessageTypeTaskUpdate,
		TaskID:         event.TaskID,
		TrackID:        trackID,
		Status:         event.Status,
		GenerationMode: event.GenerationMode,
	}
	h.send(trackID, msg)
}

// NotifySuccess pushes a completion message to all track watchers. It
// satisfies the completion bridge's notifier contract.
func (h *Hub) NotifySuccess(trackID string, event model.TaskEvent, newAudioURL string) {
	msg := model.WSCompleteMessage{
		Type:        model.WSMessageTypeComplete,
		TaskID:      event.TaskID,
		TrackID:     trackID,
		NewAudioURL: newAudioURL,
	}
	h.send(trackID, msg)
}

// NotifyFailure pushes a failure message to all track watchers
func (h *Hub) NotifyFailure(trackID string, event model.TaskEvent, message string) {
	msg := model.WSErrorMessage{
		Type:    model.WSMessageTypeError,
		TaskID:  event.TaskID,
		TrackID: trackID,
		Error: model.WSError{
			Code:    "GENERATION_FAILED",
			Message: message,
		},
	}
	h.send(trackID, msg)
}

func (h *Hub) send(trackID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal hub message: %v", err)
		return
	}
	h.broadcast <- &BroadcastMessage{
		TrackID: trackID,
		Message: data,
	}
}

// HandleConnection handles a WebSocket connection
func (h *Hub) HandleConnection(c *websocket.Conn, trackID string) {
	client := &Client{
		TrackID: trackID,
		Conn:    c,
		Send:    make(chan []byte, 256),
	}

	h.Register(client)
	defer h.Unregister(client)

	// Start writer goroutine
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case message, ok := <-client.Send:
				if !ok {
					c.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}

			case <-ticker.C:
				// Send ping for keep-alive
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Reader loop
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		// Handle client messages (ping/pong)
		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			pong := model.WSMessage{Type: model.WSMessageTypePong}
			data, _ := json.Marshal(pong)
			client.Send <- data
		}
	}
}
