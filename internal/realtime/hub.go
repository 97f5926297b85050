// Package realtime fans activity feed events out to WebSocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60

	sendBuffer = 256
)

// Subscriber delivers feed events published by any process.
type Subscriber interface {
	Subscribe(ctx context.Context, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains the connected feed clients and broadcasts to them.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
	sub     Subscriber
}

// NewHub creates a new WebSocket hub. sub may be nil, in which case only
// local broadcasts reach clients.
func NewHub(logger *zap.Logger, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{clients: make(map[string]*Client), logger: logger, sub: sub}
}

// Run relays subscribed events to clients until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if h.sub == nil {
		<-ctx.Done()
		return nil
	}
	cancel, err := h.sub.Subscribe(ctx, func(event string, payload []byte) {
		h.Broadcast(event, json.RawMessage(payload))
	})
	if err != nil {
		return err
	}
	defer cancel()
	<-ctx.Done()
	h.closeAll()
	return nil
}

// Register adds a client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("feed client joined", zap.String("client_id", c.ID), zap.Int("clients", n))
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Debug("feed client left", zap.String("client_id", c.ID))
}

// Broadcast sends an event to every local client. Slow clients miss it.
func (h *Hub) Broadcast(event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("marshal feed event", zap.String("event", event), zap.Error(err))
			return
		}
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// sendTo queues a message for one client that is still registered.
func (h *Hub) sendTo(c *Client, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}
