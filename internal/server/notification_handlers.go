package server

import (
	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary List the caller's notifications
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.NotificationPage
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	page := parsePagination(c, defaultPaginationLimit)
	result, err := s.notifications.List(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(result)
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	id, ok := parseID(c, "id")
	if !ok {
		return nil
	}
	if err := s.notifications.MarkRead(c.UserContext(), userID, id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return nil
	}
	updated, err := s.notifications.MarkAllRead(c.UserContext(), userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// requireUser returns the marketplace user id. Admin tokens have no inbox.
func requireUser(c *fiber.Ctx) (uint, bool) {
	userID, _ := c.Locals("userID").(uint)
	if userID == 0 {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Notifications are only available to user accounts"))
		return 0, false
	}
	return userID, true
}
