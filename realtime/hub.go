// Package realtime pushes queue-change events to connected panels and
// visitor views over WebSocket. Clients re-fetch the full queue record
// on every event; messages carry no state of their own, so repeated or
// reordered delivery is harmless.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Event is the wire message sent to observers.
type Event struct {
	Type    string `json:"type"`
	QueueID string `json:"queueId"`
}

type broadcast struct {
	queueID string
	message []byte
}

// Hub groups WebSocket connections by queue id and fans events out to
// them. Besides push notifications it re-broadcasts every connected
// queue id on a fixed interval, as a redundancy path for the rare case
// a pushed notification is lost.
type Hub struct {
	clients      map[string]map[*Client]bool
	register     chan *Client
	unregister   chan *Client
	broadcasts   chan broadcast
	pollInterval time.Duration
	logger       *zap.Logger
	mu           sync.RWMutex
}

// NewHub creates a hub. pollInterval <= 0 disables the poll path.
func NewHub(pollInterval time.Duration, logger *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[string]map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		broadcasts:   make(chan broadcast, 64),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Run processes hub channels; call it in its own goroutine.
func (h *Hub) Run() {
	var ticker *time.Ticker
	var tick <-chan time.Time
	if h.pollInterval > 0 {
		ticker = time.NewTicker(h.pollInterval)
		tick = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.queueID] == nil {
				h.clients[client.queueID] = make(map[*Client]bool)
			}
			h.clients[client.queueID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.queueID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.queueID)
					}
				}
			}
			h.mu.Unlock()
		case msg := <-h.broadcasts:
			h.deliver(msg.queueID, msg.message)
		case <-tick:
			// Poll redundancy: nudge every observed queue to re-fetch.
			h.mu.RLock()
			ids := make([]string, 0, len(h.clients))
			for id := range h.clients {
				ids = append(ids, id)
			}
			h.mu.RUnlock()
			for _, id := range ids {
				h.deliver(id, h.eventPayload(id))
			}
		}
	}
}

func (h *Hub) deliver(queueID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[queueID]
	if !ok {
		return
	}
	for client := range clients {
		select {
		case client.send <- message:
		default:
			// Slow consumer; drop it rather than blocking the hub.
			close(client.send)
			delete(clients, client)
		}
	}
}

// Notify queues a queue-change event for fan-out. Safe to call from
// any goroutine; wired as the Notifier subscription handler.
func (h *Hub) Notify(queueID string) {
	select {
	case h.broadcasts <- broadcast{queueID: queueID, message: h.eventPayload(queueID)}:
	default:
		h.logger.Warn("realtime broadcast buffer full, dropping event", zap.String("queueId", queueID))
	}
}

func (h *Hub) eventPayload(queueID string) []byte {
	payload, _ := json.Marshal(Event{Type: "queue_update", QueueID: queueID})
	return payload
}

// Client is one WebSocket connection observing a queue.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	queueID string
}

// NewClient wraps an upgraded connection and registers it with the hub.
func (h *Hub) NewClient(conn *websocket.Conn, queueID string) *Client {
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 256),
		queueID: queueID,
	}
	h.register <- client
	return client
}

// ReadPump discards inbound messages and watches for disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump sends queued events and keeps the connection alive with pings.
func (c *Client) WritePump() {
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
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
