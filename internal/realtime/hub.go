package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// Event is one message pushed to subscribers
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type topicEvent struct {
	Topic string `json:"topic"`
	Event Event  `json:"event"`
}

// Hub keeps the live connections grouped by topic
type Hub struct {
	// topic -> clients
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicEvent
	done       chan struct{}
	stopOnce   sync.Once
	running    atomic.Bool

	mu sync.RWMutex
}

// NewHub creates an idle hub, call Run to start it
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run serves register, unregister and broadcast until ctx ends
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				continue
			}
			h.mu.Lock()
			for client := range h.rooms[event.Topic] {
				select {
				case client.send <- message:
				default:
					// slow consumer
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues event for every client on topic. It reports false when the
// event was dropped because no Run loop serves this hub or ctx ended first.
// A worker process never runs the hub, so it has no local listeners anyway.
func (h *Hub) Broadcast(ctx context.Context, topic string, event Event) bool {
	if !h.running.Load() {
		return false
	}
	select {
	case h.broadcast <- &topicEvent{Topic: topic, Event: event}:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// RoomSize reports how many clients listen on topic
func (h *Hub) RoomSize(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[topic])
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// removeLocked drops client and closes its send channel, caller holds mu
func (h *Hub) removeLocked(client *Client) {
	clients, ok := h.rooms[client.topic]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.topic)
	}
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		for topic, clients := range h.rooms {
			for client := range clients {
				close(client.send)
			}
			delete(h.rooms, topic)
		}
		h.mu.Unlock()
	})
}
