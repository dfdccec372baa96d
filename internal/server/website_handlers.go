package server

import (
	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SendWebsiteOTP handles POST /api/websites/otp
// @Summary Email a verification code for a website contact address
// @Description The code must be sent back as otp_code when the website is submitted.
// @Tags websites
// @Accept json
// @Produce json
// @Param request body object{contact_email=string} true "Contact address"
// @Success 200 {object} object{message=string,expires_in=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Router /websites/otp [post]
func (s *Server) SendWebsiteOTP(c *fiber.Ctx) error {
	var req struct {
		ContactEmail string `json:"contact_email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if err := s.websites.SendCode(c.UserContext(), req.ContactEmail); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":    "Verification code sent",
		"expires_in": int(s.websites.CodeTTL().Seconds()),
	})
}
