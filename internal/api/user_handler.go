package api

import (
	"errors"

	"task-service/internal/model"
	"task-service/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
		validate:    validator.New(),
	}
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type UpdateUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type SetAvatarRequest struct {
	AvatarURL string `json:"avatar_url" validate:"required,url"`
}

type DeviceTokenRequest struct {
	DeviceToken string `json:"device_token" validate:"required"`
}

func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return internalError(c, err, "Gagal mengambil data user")
	}

	return respond(c, fiber.StatusOK, "Berhasil mengambil data user", model.PublicUsers(users))
}

func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	user, err := h.userService.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		}
		return internalError(c, err, "Gagal mengambil data user")
	}

	return respond(c, fiber.StatusOK, "Berhasil mengambil data user", user.Public())
}

func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var request CreateUserRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "name, email, dan password wajib diisi")
	}

	user, err := h.userService.Create(c.UserContext(), service.CreateUserInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
		Role:     request.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			return fail(c, fiber.StatusBadRequest, "Email sudah terdaftar")
		case errors.Is(err, service.ErrInvalidRole):
			return fail(c, fiber.StatusBadRequest, "Role harus salah satu dari: admin, user")
		case errors.Is(err, service.ErrValidation):
			return fail(c, fiber.StatusBadRequest, "name, email, dan password wajib diisi")
		default:
			return internalError(c, err, "Gagal membuat user")
		}
	}

	return respond(c, fiber.StatusCreated, "User berhasil dibuat", user.Public())
}

func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	var request UpdateUserRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "name dan email wajib diisi")
	}

	user, err := h.userService.Update(c.UserContext(), id, request.Name, request.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			return fail(c, fiber.StatusBadRequest, "Email sudah digunakan oleh user lain")
		case errors.Is(err, service.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		case errors.Is(err, service.ErrValidation):
			return fail(c, fiber.StatusBadRequest, "name dan email wajib diisi")
		default:
			return internalError(c, err, "Gagal update user")
		}
	}

	return respond(c, fiber.StatusOK, "User berhasil diupdate", user.Public())
}

func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		}
		return internalError(c, err, "Gagal hapus user")
	}

	return respond(c, fiber.StatusOK, "User berhasil dihapus", nil)
}

func (h *UserHandler) AvatarUploadURL(c *fiber.Ctx) error {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token tidak valid")
	}

	upload, err := h.userService.AvatarUploadURL(c.UserContext(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			return fail(c, fiber.StatusServiceUnavailable, "Penyimpanan avatar tidak tersedia")
		}
		return internalError(c, err, "Gagal membuat URL upload")
	}

	return respond(c, fiber.StatusOK, "URL upload berhasil dibuat", upload)
}

func (h *UserHandler) SetAvatar(c *fiber.Ctx) error {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token tidak valid")
	}

	var request SetAvatarRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "avatar_url wajib diisi")
	}

	user, err := h.userService.SetAvatar(c.UserContext(), claims.UserID, request.AvatarURL)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		}
		return internalError(c, err, "Gagal update avatar")
	}

	return respond(c, fiber.StatusOK, "Avatar berhasil diupdate", user.Public())
}

func (h *UserHandler) RegisterDeviceToken(c *fiber.Ctx) error {
	claims, err := ClaimsFromCtx(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token tidak valid")
	}

	var request DeviceTokenRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "device_token wajib diisi")
	}

	if err := h.userService.RegisterDeviceToken(c.UserContext(), claims.UserID, request.DeviceToken); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		case errors.Is(err, service.ErrValidation):
			return fail(c, fiber.StatusBadRequest, "device_token wajib diisi")
		default:
			return internalError(c, err, "Gagal menyimpan device token")
		}
	}

	return respond(c, fiber.StatusOK, "Device token berhasil disimpan", nil)
}
