package push

import (
	"log/slog"
	"sync"
	"time"

	"github.com/microparty/microparty/internal/model"
)

// message is a framed event with an optional target player. An empty
// target means a room broadcast.
type message struct {
	target model.PlayerID
	data   []byte
}

// Hub fans session events out to that session's subscribers
type Hub struct {
	sessionID model.SessionID
	clients   map[*Client]bool
	mu        sync.RWMutex
	logger    *slog.Logger

	register   chan *Client
	unregister chan *Client
	messages   chan message
	done       chan struct{}
}

// NewHub creates a new Hub for a session
func NewHub(sessionID model.SessionID, logger *slog.Logger) *Hub {
	return &Hub{
		sessionID:  sessionID,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("session", string(sessionID))),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		messages:   make(chan message, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("push hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("push client registered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				duration := time.Since(client.connectedAt)
				h.logger.Info("push client unregistered",
					slog.String("player_id", string(client.playerID)),
					slog.Duration("connection_duration", duration),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case msg := <-h.messages:
			h.deliver(msg)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("push hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// deliver sends a message to the room, or to one player when targeted
func (h *Hub) deliver(msg message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent, dropped := 0, 0
	for client := range h.clients {
		if msg.target != "" && client.playerID != msg.target {
			continue
		}
		select {
		case client.send <- msg.data:
			sent++
		default:
			dropped++
			h.logger.Warn("push message dropped - client buffer full",
				slog.String("player_id", string(client.playerID)))
		}
	}
	if dropped > 0 {
		h.logger.Warn("push delivery partial failure",
			slog.Int("sent", sent),
			slog.Int("dropped", dropped))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a message for every subscriber
func (h *Hub) Broadcast(data []byte) {
	h.queue(message{data: data})
}

// SendToPlayer queues a message for one player's subscribers only
func (h *Hub) SendToPlayer(playerID model.PlayerID, data []byte) {
	h.queue(message{target: playerID, data: data})
}

func (h *Hub) queue(msg message) {
	select {
	case h.messages <- msg:
	default:
		h.logger.Warn("push message dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Manager keeps one hub per session
type Manager struct {
	hubs   map[model.SessionID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewManager creates a new hub manager
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		hubs:   make(map[model.SessionID]*Hub),
		logger: logger.With(slog.String("component", "push")),
	}
}

// GetOrCreateHub returns the hub for a session, creating one if it doesn't exist
func (m *Manager) GetOrCreateHub(sessionID model.SessionID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[sessionID]; ok {
		return hub
	}

	hub := NewHub(sessionID, m.logger)
	m.hubs[sessionID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a session, or nil if it doesn't exist
func (m *Manager) GetHub(sessionID model.SessionID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[sessionID]
}

// RemoveHub removes and closes a hub
func (m *Manager) RemoveHub(sessionID model.SessionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[sessionID]; ok {
		hub.Close()
		delete(m.hubs, sessionID)
		m.logger.Info("push hub removed", slog.String("session", string(sessionID)))
	}
}

// Close shuts down every hub
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
