package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
)

const (
	// Messages a client may send per second before the rest are ignored.
	maxMessagesPerSecond = 10

	sendBufferSize = 256
)

// Client message types.
const (
	MessageWatch    = "watch"     // narrow the stream to the listed products
	MessageWatchAll = "watch_all" // back to the whole catalog
)

// ClientMessage is what a subscriber may send to shape its stream.
type ClientMessage struct {
	Type       string `json:"type"`
	ProductIDs []uint `json:"product_ids"`
}

// CatalogEvent is the frame pushed to subscribers.
type CatalogEvent struct {
	Type      string         `json:"type"`
	ProductID uint           `json:"product_id"`
	Product   *model.Product `json:"product,omitempty"`
	At        time.Time      `json:"at"`
}

// Client is one websocket subscriber. A client with no watched products receives every event.
type Client struct {
	Hub  *Hub
	Conn *Conn
	ID   string
	Send chan []byte

	mu      sync.RWMutex
	watched map[uint]bool

	rateMu        sync.Mutex
	messageCount  int
	lastResetTime time.Time
}

// NewClient builds a subscriber with an unfiltered stream.
func NewClient(hub *Hub, conn *Conn, id string) *Client {
	return &Client{
		Hub:           hub,
		Conn:          conn,
		ID:            id,
		Send:          make(chan []byte, sendBufferSize),
		watched:       make(map[uint]bool),
		lastResetTime: time.Now(),
	}
}

func (c *Client) wants(productID uint) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.watched) == 0 || c.watched[productID]
}

// Hub fans catalog events out to every connected subscriber.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
	done       chan struct{}

	mu  sync.RWMutex
	now func() time.Time
}

type broadcastMessage struct {
	productID uint
	data      []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan broadcastMessage, 1024),
		done:       make(chan struct{}),
		now:        time.Now,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			h.drainRegistrations()
			logger.Info("Catalog hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"client_id":   client.ID,
				"subscribers": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"client_id":   client.ID,
				"subscribers": total,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(message.productID) {
					continue
				}
				select {
				case client.Send <- message.data:
				default:
					// slow consumer
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"client_id": client.ID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues a catalog event. It never blocks; events are dropped when the queue is full.
func (h *Hub) Publish(eventType string, productID uint, product *model.Product) {
	data, err := json.Marshal(CatalogEvent{
		Type:      eventType,
		ProductID: productID,
		Product:   product,
		At:        h.now().UTC(),
	})
	if err != nil {
		logger.Error("Failed to marshal catalog event", err, map[string]interface{}{
			"type":       eventType,
			"product_id": productID,
		})
		return
	}

	select {
	case h.broadcast <- broadcastMessage{productID: productID, data: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type":       eventType,
			"product_id": productID,
		})
	}
}

// drainRegistrations closes clients that were queued but never served.
func (h *Hub) drainRegistrations() {
	for {
		select {
		case client := <-h.register:
			close(client.Send)
		default:
			return
		}
	}
}

// Register queues a client. Once the hub has stopped the client's send channel is closed
// so its write pump exits.
func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		close(client.Send)
		return
	default:
	}

	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister is a no-op after the hub has stopped; Run already closed every client.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers reports how many clients are connected.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleClientMessage applies a subscriber's watch request, subject to a per-second cap.
func (h *Hub) HandleClientMessage(client *Client, message []byte) {
	client.rateMu.Lock()
	now := time.Now()
	if now.Sub(client.lastResetTime) >= time.Second {
		client.messageCount = 0
		client.lastResetTime = now
	}
	client.messageCount++
	count := client.messageCount
	client.rateMu.Unlock()

	if count > maxMessagesPerSecond {
		logger.Warn("Rate limit exceeded", map[string]interface{}{
			"client_id": client.ID,
			"count":     count,
		})
		return
	}

	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		logger.Warn("Failed to parse client message", map[string]interface{}{
			"client_id": client.ID,
			"error":     err.Error(),
		})
		return
	}

	switch msg.Type {
	case MessageWatch:
		client.mu.Lock()
		for _, id := range msg.ProductIDs {
			client.watched[id] = true
		}
		client.mu.Unlock()
	case MessageWatchAll:
		client.mu.Lock()
		client.watched = make(map[uint]bool)
		client.mu.Unlock()
	default:
		logger.Debug("Ignoring client message", map[string]interface{}{
			"client_id": client.ID,
			"type":      msg.Type,
		})
	}
}
