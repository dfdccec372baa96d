package notifications

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"marketplace/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// The inbox socket is push only; peers send nothing larger than control frames.
	maxInboundSize = 1024

	// sendBuffer holds queued events plus one slot kept for the drop notice.
	sendBuffer = 64
)

// EventNotificationsDropped tells the dashboard its socket fell behind and
// that it should reload the inbox over REST.
const EventNotificationsDropped = "notifications_dropped"

var dropNotice = mustEncode(Event{
	Type:    EventNotificationsDropped,
	Payload: map[string]string{"resync": "/api/notifications"},
})

func mustEncode(ev Event) []byte {
	b, err := json.Marshal(ev)
	if err != nil {
		panic(err)
	}
	return b
}

// WSHub is implemented by hubs that own clients.
type WSHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client is one dashboard socket belonging to a submitter.
type Client struct {
	Hub    WSHub
	Conn   *websocket.Conn
	Send   chan []byte
	UserID uint

	// noticeQueued is set while a drop notice sits in Send.
	noticeQueued atomic.Bool

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func NewClient(hub WSHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBuffer),
	}
}

// ReadPump keeps the read deadline fresh from pongs and returns when the peer
// goes away. Data frames are discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxInboundSize)
	extend := func() error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) }
	_ = extend()
	c.Conn.SetPongHandler(func(string) error { return extend() })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("inbox socket read failed", "user_id", c.UserID, "error", err)
			}
			return
		}
	}
}

// WritePump writes queued events and keepalive pings until Send is closed or
// a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		var (
			kind    = websocket.TextMessage
			payload []byte
		)
		select {
		case msg, ok := <-c.Send:
			if !ok {
				_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if isDropNotice(msg) {
				c.noticeQueued.Store(false)
			}
			payload = msg
		case <-ticker.C:
			kind = websocket.PingMessage
		}

		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(kind, payload); err != nil {
			return
		}
	}
}

func isDropNotice(msg []byte) bool {
	return len(msg) == len(dropNotice) && string(msg) == string(dropNotice)
}

// TrySend queues msg without blocking. When the buffer is nearly full msg is
// dropped and a single drop notice takes the reserved slot.
func (c *Client) TrySend(msg []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
		return false
	}

	if len(c.Send) < cap(c.Send)-1 {
		select {
		case c.Send <- msg:
			return true
		default:
		}
	}

	observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
	if c.noticeQueued.CompareAndSwap(false, true) {
		slog.Warn("inbox socket fell behind, dropping events", "user_id", c.UserID, "hub", c.Hub.Name())
		select {
		case c.Send <- dropNotice:
		default:
			c.noticeQueued.Store(false)
		}
	}
	return false
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.Send)
		c.mu.Unlock()
	})
}
