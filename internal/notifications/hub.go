package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"marketplace/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrHubClosed       = errors.New("notification hub is shutting down")
)

// Hub is a websocket hub that maps userID -> set of Clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates a new Hub instance for managing notifications.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "notification hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send buffer. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	client.closeSend()
}

// Broadcast sends message to all connections for userID
func (h *Hub) Broadcast(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		data := []byte(message)
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// IsOnline reports whether a user currently has at least one active websocket connection.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// ConnectionCount returns the number of registered clients.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring subscribes the hub to Redis so events published by any instance
// reach this instance's sockets.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, h.route)
}

func (h *Hub) route(channel, payload string) {
	userID, ok := parseUserChannel(channel)
	if !ok {
		slog.Warn("invalid notification channel", "channel", channel)
		return
	}
	h.Broadcast(userID, payload)
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn != nil {
				if err := client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
					slog.Debug("failed to write close message", "user_id", userID, "error", err)
				}
				if err := client.Conn.Close(); err != nil {
					slog.Debug("failed to close websocket", "user_id", userID, "error", err)
				}
			}
			client.closeSend()
			observability.WebSocketConnectionsTotal.Dec()
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
