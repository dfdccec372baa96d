package server

import (
	"marketplace/internal/middleware"
	"marketplace/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a marketplace account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{name=string,email=string,password=string} true "Signup request"
// @Success 201 {object} service.Session
// @Failure 400 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	sess, err := s.authService.Signup(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

// Login handles POST /api/auth/login
// @Summary User login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login request"
// @Success 200 {object} service.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	sess, err := s.authService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(sess)
}

// AdminLogin handles POST /api/admin/auth/login
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login request"
// @Success 200 {object} service.Session
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/auth/login [post]
func (s *Server) AdminLogin(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	sess, err := s.authService.AdminLogin(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(sess)
}

// Logout handles POST /api/auth/logout
// @Summary Revoke the current token
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("tokenClaims").(*middleware.TokenClaims)
	if err := s.authService.Logout(c.UserContext(), claims); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Me handles GET /api/auth/me
// @Summary Current identity
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{user=models.User,admin=models.Admin}
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if actor.IsAdmin() {
		admin, err := s.adminRepo.GetByID(c.UserContext(), actor.AdminID)
		if err != nil {
			return models.RespondWithAppError(c, err)
		}
		return c.JSON(fiber.Map{"admin": admin})
	}
	user, err := s.userRepo.GetByID(c.UserContext(), actor.UserID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
