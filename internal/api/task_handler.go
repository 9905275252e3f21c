package api

import (
	"errors"
	"strings"

	"task-service/internal/model"
	"task-service/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var msgInvalidStatus = "Status harus salah satu dari: " + strings.Join(model.Statuses, ", ")

type TaskHandler struct {
	taskService service.TaskService
	validate    *validator.Validate
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		validate:    validator.New(),
	}
}

type CreateTaskRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description *string     `json:"description"`
	UserID      string      `json:"user_id" validate:"required"`
	Deadline    *model.Date `json:"deadline"`
}

type UpdateTaskRequest struct {
	Title       string      `json:"title" validate:"required"`
	Description *string     `json:"description"`
	UserID      string      `json:"user_id"`
	Deadline    *model.Date `json:"deadline"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *TaskHandler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.taskService.List(c.UserContext())
	if err != nil {
		return internalError(c, err, "Gagal mengambil data task")
	}

	return respond(c, fiber.StatusOK, "Berhasil mengambil data task", tasks)
}

func (h *TaskHandler) GetTask(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	task, err := h.taskService.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return fail(c, fiber.StatusNotFound, msgTaskNotFound)
		}
		return internalError(c, err, "Gagal mengambil data task")
	}

	return respond(c, fiber.StatusOK, "Berhasil mengambil data task", task)
}

func (h *TaskHandler) CreateTask(c *fiber.Ctx) error {
	var request CreateTaskRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "title dan user_id wajib diisi")
	}

	userID, err := uuid.Parse(request.UserID)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "user_id tidak valid")
	}

	task, err := h.taskService.Create(c.UserContext(), service.CreateTaskInput{
		Title:       request.Title,
		Description: optionalText(request.Description),
		UserID:      userID,
		Deadline:    optionalDate(request.Deadline),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOwnerNotFound):
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		case errors.Is(err, service.ErrValidation):
			return fail(c, fiber.StatusBadRequest, "title dan user_id wajib diisi")
		default:
			return internalError(c, err, "Gagal membuat task")
		}
	}

	return respond(c, fiber.StatusCreated, "Task berhasil dibuat", task)
}

func (h *TaskHandler) UpdateTask(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	var request UpdateTaskRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "title wajib diisi")
	}

	var owner *uuid.UUID
	if request.UserID != "" {
		userID, err := uuid.Parse(request.UserID)
		if err != nil || userID == uuid.Nil {
			return fail(c, fiber.StatusBadRequest, "user_id tidak valid")
		}
		owner = &userID
	}

	task, err := h.taskService.UpdateDetails(c.UserContext(), id, service.UpdateTaskInput{
		Title:       request.Title,
		Description: optionalText(request.Description),
		UserID:      owner,
		Deadline:    optionalDate(request.Deadline),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTaskNotFound):
			return fail(c, fiber.StatusNotFound, msgTaskNotFound)
		case errors.Is(err, service.ErrOwnerNotFound):
			return fail(c, fiber.StatusNotFound, msgUserNotFound)
		case errors.Is(err, service.ErrValidation):
			return fail(c, fiber.StatusBadRequest, "title wajib diisi")
		default:
			return internalError(c, err, "Gagal update task")
		}
	}

	return respond(c, fiber.StatusOK, "Detail task berhasil diupdate", task)
}

func (h *TaskHandler) UpdateTaskStatus(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	var request UpdateStatusRequest

	if err := c.BodyParser(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, msgInvalidBody)
	}

	if err := h.validate.Struct(&request); err != nil {
		return fail(c, fiber.StatusBadRequest, "status wajib diisi")
	}

	task, err := h.taskService.UpdateStatus(c.UserContext(), id, request.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			return fail(c, fiber.StatusBadRequest, msgInvalidStatus)
		case errors.Is(err, service.ErrTaskNotFound):
			return fail(c, fiber.StatusNotFound, msgTaskNotFound)
		default:
			return internalError(c, err, "Gagal update status task")
		}
	}

	return respond(c, fiber.StatusOK, "Status task berhasil diupdate", task)
}

func (h *TaskHandler) DeleteTask(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return fail(c, fiber.StatusBadRequest, msgInvalidID)
	}

	if err := h.taskService.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			return fail(c, fiber.StatusNotFound, msgTaskNotFound)
		}
		return internalError(c, err, "Gagal hapus task")
	}

	return respond(c, fiber.StatusOK, "Task berhasil dihapus", nil)
}

// empty strings and dates are stored as NULL
func optionalText(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func optionalDate(d *model.Date) *model.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	return d
}
