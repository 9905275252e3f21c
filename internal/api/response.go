package api

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	msgInvalidBody   = "Format request tidak valid"
	msgInvalidID     = "ID tidak valid"
	msgUserNotFound  = "User tidak ditemukan"
	msgTaskNotFound  = "Task tidak ditemukan"
	msgStoreTimedOut = "Database tidak merespons"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Response{Success: false, Message: message})
}

// internalError logs err and answers with a generic message. A store deadline becomes 504.
func internalError(c *fiber.Ctx, err error, message string) error {
	slog.ErrorContext(c.UserContext(), message,
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)

	if errors.Is(err, context.DeadlineExceeded) {
		return fail(c, fiber.StatusGatewayTimeout, msgStoreTimedOut)
	}
	return fail(c, fiber.StatusInternalServerError, message)
}

func paramID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
