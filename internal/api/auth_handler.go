package api

import (
	"errors"

	"task-service/internal/model"
	"task-service/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var request RegisterRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "name, email, dan password wajib diisi")
	}

	user, token, err := h.authService.Register(c.UserContext(), request.Name, request.Email, request.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			return fail(c, fiber.StatusBadRequest, "Email sudah terdaftar")
		case errors.Is(err, service.ErrValidation):
			return fail(c, fiber.StatusBadRequest, "name, email, dan password wajib diisi")
		default:
			return internalError(c, err, "Terjadi kesalahan saat registrasi")
		}
	}

	return respond(c, fiber.StatusCreated, "Registrasi berhasil", AuthResponse{Token: token, User: user.Public()})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var request LoginRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "Email dan password harus diisi")
	}

	user, token, err := h.authService.Login(c.UserContext(), request.Email, request.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return fail(c, fiber.StatusUnauthorized, "Email atau password salah")
		}
		return internalError(c, err, "Terjadi kesalahan saat login")
	}

	return respond(c, fiber.StatusOK, "Login berhasil", AuthResponse{Token: token, User: user.Public()})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token tidak valid")
	}

	if err := h.authService.Logout(c.UserContext(), claims); err != nil {
		return internalError(c, err, "Terjadi kesalahan saat logout")
	}

	return respond(c, fiber.StatusOK, "Logout berhasil", nil)
}
