package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/samber/lo"
)

var ErrClientDisconnected = errors.New("client disconnected")

// Hub is the subscriber registry and broadcast router. A single RWMutex
// guards both the topic index and every client's own topic set, so a
// publish always sees a consistent snapshot: subscribe, unsubscribe and
// disconnect take the write lock, publish holds the read lock while it
// enqueues.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[Topic]map[*Client]struct{}

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		topics:  make(map[Topic]map[*Client]struct{}),
		logger:  logger.With(slog.String("component", "hub")),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	h.logger.Debug("Client registered", "clientID", c.id, "userID", c.identity.ID)
}

// Subscribe adds c to topic. It reports false when c already held the
// subscription.
func (h *Hub) Subscribe(c *Client, topic Topic) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false, ErrClientDisconnected
	}
	if _, ok := c.topics[topic]; ok {
		return false, nil
	}

	subscribers, ok := h.topics[topic]
	if !ok {
		subscribers = make(map[*Client]struct{})
		h.topics[topic] = subscribers
	}
	subscribers[c] = struct{}{}
	c.topics[topic] = struct{}{}

	h.logger.Debug("Client subscribed", "clientID", c.id, "userID", c.identity.ID, "topic", topic)
	return true, nil
}

// Unsubscribe removes c from topic and reports whether it was subscribed.
func (h *Hub) Unsubscribe(c *Client, topic Topic) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := c.topics[topic]; !ok {
		return false
	}
	h.removeLocked(c, topic)
	h.logger.Debug("Client unsubscribed", "clientID", c.id, "userID", c.identity.ID, "topic", topic)
	return true
}

// Disconnect drops every subscription c holds and closes its send queue.
// Calling it more than once is a no-op.
func (h *Hub) Disconnect(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	for topic := range c.topics {
		h.removeLocked(c, topic)
	}
	delete(h.clients, c)
	c.shutdown()

	h.logger.Debug("Client unregistered", "clientID", c.id, "userID", c.identity.ID)
	return true
}

func (h *Hub) removeLocked(c *Client, topic Topic) {
	delete(c.topics, topic)
	if subscribers, ok := h.topics[topic]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish delivers event to every current subscriber of topic and returns
// how many queues accepted it. Delivery is best effort; a full or closed
// queue simply misses the event.
func (h *Hub) Publish(topic Topic, event Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", "topic", topic, "type", event.Type, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for c := range h.topics[topic] {
		if c.enqueue(data) {
			delivered++
		}
	}
	h.logger.Debug("Event published", "topic", topic, "type", event.Type, "delivered", delivered)
	return delivered
}

// SendTo delivers event to a single registered client.
func (h *Hub) SendTo(c *Client, event Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal event", "clientID", c.id, "type", event.Type, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; !ok {
		return false
	}
	return c.enqueue(data)
}

func (h *Hub) IsSubscribed(c *Client, topic Topic) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := c.topics[topic]
	return ok
}

func (h *Hub) SubscriberCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TopicsOf lists the topics c is subscribed to, in no particular order.
func (h *Hub) TopicsOf(c *Client) []Topic {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(c.topics)
}

// Shutdown disconnects every client.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	clients := lo.Keys(h.clients)
	h.mu.RUnlock()

	for _, c := range clients {
		h.Disconnect(c)
	}
	h.logger.Info("WebSocket hub shut down", "clients", len(clients))
}
