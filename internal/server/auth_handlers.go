package server

import (
	"miniblog/internal/models"
	"miniblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Registration request"
// @Success 201 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.RegisterInput
	if err := parseJSONBody(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := s.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// RegisterUsage handles GET /api/auth/register
// @Summary Register usage hint
// @Tags auth
// @Produce json
// @Failure 405 {object} models.ErrorResponse
// @Router /auth/register [get]
func (s *Server) RegisterUsage(c *fiber.Ctx) error {
	return respondError(c, models.NewMethodNotAllowedError(
		"Use POST to register. Send JSON: username, email, password."))
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate with email and password and return a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} service.AuthResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.LoginInput
	if err := parseJSONBody(c, &req); err != nil {
		return respondError(c, err)
	}

	result, err := s.authService.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(result)
}

// LoginUsage handles GET /api/auth/login
// @Summary Login usage hint
// @Tags auth
// @Produce json
// @Failure 405 {object} models.ErrorResponse
// @Router /auth/login [get]
func (s *Server) LoginUsage(c *fiber.Ctx) error {
	return respondError(c, models.NewMethodNotAllowedError(
		"Use POST to login. Send JSON: email, password."))
}
