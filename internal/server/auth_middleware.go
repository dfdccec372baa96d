package server

import (
	"errors"
	"strconv"
	"strings"

	"marketplace/internal/middleware"
	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const wsTicketPrefix = "ws_ticket:"

// AuthRequired resolves the caller from a Bearer token, or from a single-use
// ticket on websocket routes, and rejects the request when neither is valid.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		if isWSPath {
			ticket := c.Query("ticket")
			if ticket == "" || s.redis == nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("WebSocket ticket required"))
			}
			userID, err := s.consumeWSTicket(c, ticket)
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			s.setIdentity(c, userID, nil)
			return c.Next()
		}

		claims, err := s.verifyBearer(c)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		if err := s.applyClaims(c, claims); err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.Next()
	}
}

// OptionalAuth resolves the caller when a valid token is present and lets
// anonymous requests through otherwise.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if middleware.BearerToken(c) == "" {
			return c.Next()
		}
		claims, err := s.verifyBearer(c)
		if err != nil {
			return c.Next()
		}
		_ = s.applyClaims(c, claims)
		return c.Next()
	}
}

// AdminRequired rejects callers without an active admin identity.
// Must be placed after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if adminID, _ := c.Locals("adminID").(uint); adminID == 0 {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) verifyBearer(c *fiber.Ctx) (*middleware.TokenClaims, error) {
	token := middleware.BearerToken(c)
	if token == "" {
		return nil, models.NewUnauthorizedError("Authorization required")
	}
	claims, err := middleware.ParseToken(s.config.JWTSecret, token)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	if claims.JTI != "" && s.redis != nil {
		revoked, err := s.redis.Exists(c.Context(), middleware.RevocationKey(claims.JTI)).Result()
		if err == nil && revoked > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

// applyClaims stores the caller in locals. Admin roles are read from the
// account on every request so demotions apply before the token expires.
func (s *Server) applyClaims(c *fiber.Ctx, claims *middleware.TokenClaims) error {
	c.Locals("tokenClaims", claims)
	if claims.Kind != middleware.TokenKindAdmin {
		s.setIdentity(c, claims.SubjectID, nil)
		return nil
	}

	admin, err := s.adminRepo.GetByID(c.UserContext(), claims.SubjectID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return models.NewUnauthorizedError("Admin account not found")
		}
		return err
	}
	if !admin.IsActive {
		return models.NewForbiddenError("admin account is disabled")
	}
	s.setIdentity(c, 0, admin)
	return nil
}

func (s *Server) setIdentity(c *fiber.Ctx, userID uint, admin *models.Admin) {
	var adminID uint
	if admin != nil {
		adminID = admin.ID
		c.Locals("adminID", admin.ID)
		c.Locals("adminRole", admin.Role)
	}
	if userID != 0 {
		c.Locals("userID", userID)
	}
	c.SetUserContext(middleware.WithIdentity(c.UserContext(), userID, adminID))
}

// consumeWSTicket redeems a ticket exactly once.
func (s *Server) consumeWSTicket(c *fiber.Ctx, ticket string) (uint, error) {
	raw, err := s.redis.GetDel(c.Context(), wsTicketPrefix+ticket).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, models.NewUnauthorizedError("ticket not found")
		}
		return 0, err
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return 0, models.NewUnauthorizedError("ticket malformed")
	}
	return uint(userID), nil
}
