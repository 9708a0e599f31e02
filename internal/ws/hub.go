package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/saturnino-fabrica-de-software/vigia/internal/domain"
)

// allTopics is the topic of clients subscribed to every event
const allTopics = ""

type Hub struct {
	clients    map[*Client]bool
	topics     map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	logger     *slog.Logger
	mu         sync.RWMutex
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run dispatches registrations and events until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.dispatch(event)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.topics[client.topic] == nil {
		h.topics[client.topic] = make(map[*Client]bool)
	}
	h.topics[client.topic][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(client)
}

func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	delete(h.topics[client.topic], client)

	if len(h.topics[client.topic]) == 0 {
		delete(h.topics, client.topic)
	}

	close(client.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropLocked(client)
	}
}

func (h *Hub) dispatch(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err),
		)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.deliverLocked(allTopics, message)
	if event.SessionID != "" {
		h.deliverLocked(event.SessionID, message)
	}
}

// deliverLocked drops clients whose buffer is full
func (h *Hub) deliverLocked(topic string, message []byte) {
	for client := range h.topics[topic] {
		select {
		case client.send <- message:
		default:
			h.logger.Warn("dropping slow subscriber", slog.String("topic", topic))
			h.dropLocked(client)
		}
	}
}

// Publish queues an event without blocking; it is dropped if the hub is saturated.
func (h *Hub) Publish(sessionID string, eventType domain.EventType, data interface{}) {
	event := Event{
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event dropped, hub saturated", slog.String("type", string(eventType)))
	}
}

// ConnectedClients counts subscribers of a topic; "" counts global subscribers.
func (h *Hub) ConnectedClients(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.topics[topic])
}
