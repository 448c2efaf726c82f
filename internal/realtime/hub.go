// Package realtime pushes events to connected users over websockets.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
)

// Event types pushed to clients.
const (
	EventMessageCreated    = "message.created"
	EventAlertSymptom      = "alert.symptom"
	EventWearableConnected = "wearable.connected"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 16
	maxMessage = 512
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data"`
	At   time.Time `json:"at"`
}

// Client is one websocket connection.
type Client struct {
	UserID string
	Role   models.Role

	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub tracks connections per user.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub. allowedOrigins restricts the websocket Origin header;
// empty allows any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{clients: make(map[string]map[*Client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// ServeWS upgrades the request and serves the connection for an
// authenticated user until it closes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string, role models.Role) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &Client{UserID: userID, Role: role, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go c.writePump(h)
	c.readPump(h)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]struct{})
	}
	h.clients[c.UserID][c] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeClients.Inc()
}

func (h *Hub) unregister(c *Client) {
	c.once.Do(func() {
		h.mu.Lock()
		if set := h.clients[c.UserID]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.clients, c.UserID)
			}
		}
		close(c.send)
		h.mu.Unlock()
		metrics.RealtimeClients.Dec()
	})
}

// SendToUser pushes an event to every connection of userID.
func (h *Hub) SendToUser(userID, eventType string, data any) {
	msg, ok := encode(eventType, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		h.deliver(c, msg)
	}
	metrics.RealtimeEventsTotal.WithLabelValues(eventType).Inc()
}

// SendToRoles pushes an event to every connection whose user has one of roles.
func (h *Hub) SendToRoles(eventType string, data any, roles ...models.Role) {
	msg, ok := encode(eventType, data)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.clients {
		for c := range set {
			for _, role := range roles {
				if c.Role == role {
					h.deliver(c, msg)
					break
				}
			}
		}
	}
	metrics.RealtimeEventsTotal.WithLabelValues(eventType).Inc()
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	var all []*Client
	for _, set := range h.clients {
		for c := range set {
			all = append(all, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range all {
		c.conn.Close()
	}
}

// deliver queues msg without blocking. A client whose buffer is full is
// dropped. Must be called with h.mu held for reading.
func (h *Hub) deliver(c *Client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		go c.conn.Close()
	}
}

func encode(eventType string, data any) ([]byte, bool) {
	msg, err := json.Marshal(Event{Type: eventType, Data: data, At: time.Now().UTC()})
	if err != nil {
		log.Printf("encode realtime event %s: %v", eventType, err)
		return nil, false
	}
	return msg, true
}

// readPump discards client frames and detects disconnects.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump is the only writer on the connection.
func (c *Client) writePump(h *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}
