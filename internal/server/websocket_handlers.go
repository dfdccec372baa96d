package server

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const wsTicketTTL = 30 * time.Second

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a single-use WebSocket ticket
// @Description Browsers cannot set headers on WebSocket upgrades; the ticket is passed as ?ticket= instead.
// @Tags realtime
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewUpstreamError("realtime delivery unavailable", nil))
	}

	ticket := uuid.NewString()
	key := wsTicketPrefix + ticket
	if err := s.redis.Set(c.Context(), key, strconv.FormatUint(uint64(userID), 10), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler streams the caller's notification events.
// Authentication is handled by route middleware; userID is read from connection locals.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 || s.hub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			slog.Warn("websocket register failed", "user_id", uid, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, wsErrorFrame(err))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("WebSocket upgrade required"))
		}
		return upgrade(c)
	}
}

// wsErrorFrame is the last frame sent before closing a socket that could not
// be registered.
func wsErrorFrame(err error) []byte {
	frame, mErr := json.Marshal(fiber.Map{"error": err.Error()})
	if mErr != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return frame
}
