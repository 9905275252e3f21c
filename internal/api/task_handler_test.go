package api

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"task-service/internal/model"
	"task-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTaskService struct {
	service.TaskService

	getByID      func(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error)
	create       func(ctx context.Context, input service.CreateTaskInput) (*model.Task, error)
	update       func(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput) (*model.Task, error)
	updateStatus func(ctx context.Context, id uuid.UUID, status string) (*model.Task, error)
	delete       func(ctx context.Context, id uuid.UUID) error
}

func (s *stubTaskService) GetByID(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error) {
	return s.getByID(ctx, id)
}

func (s *stubTaskService) Create(ctx context.Context, input service.CreateTaskInput) (*model.Task, error) {
	return s.create(ctx, input)
}

func (s *stubTaskService) UpdateDetails(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput) (*model.Task, error) {
	return s.update(ctx, id, input)
}

func (s *stubTaskService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error) {
	return s.updateStatus(ctx, id, status)
}

func (s *stubTaskService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.delete(ctx, id)
}

func taskApp(svc service.TaskService) *fiber.App {
	h := NewTaskHandler(svc)
	app := fiber.New()
	app.Get("/tasks/:id", h.GetTask)
	app.Post("/tasks", h.CreateTask)
	app.Put("/tasks/:id", h.UpdateTask)
	app.Patch("/tasks/:id/status", h.UpdateTaskStatus)
	app.Delete("/tasks/:id", h.DeleteTask)
	return app
}

func TestTaskHandler_MalformedIDIsBadRequest(t *testing.T) {
	app := taskApp(&stubTaskService{})

	for _, tc := range []struct{ method, path string }{
		{fiber.MethodGet, "/tasks/42"},
		{fiber.MethodPut, "/tasks/not-a-uuid"},
		{fiber.MethodPatch, "/tasks/xyz/status"},
		{fiber.MethodDelete, "/tasks/1"},
	} {
		status, body := doRequest(t, app, tc.method, tc.path, "", fiber.Map{"title": "t", "status": "pending"})
		assert.Equal(t, fiber.StatusBadRequest, status, tc.path)
		assert.Equal(t, msgInvalidID, body.Message)
	}
}

func TestTaskHandler_CreateTask(t *testing.T) {
	owner := uuid.New()
	var got service.CreateTaskInput
	app := taskApp(&stubTaskService{
		create: func(ctx context.Context, input service.CreateTaskInput) (*model.Task, error) {
			got = input
			return &model.Task{ID: uuid.New(), Title: input.Title, Status: model.StatusPending, UserID: input.UserID, Deadline: input.Deadline}, nil
		},
	})

	status, body := doRequest(t, app, fiber.MethodPost, "/tasks", "", fiber.Map{
		"title":       "Write report",
		"description": "",
		"user_id":     owner.String(),
		"deadline":    "2030-03-01",
	})
	require.Equal(t, fiber.StatusCreated, status, body.Message)
	assert.Equal(t, "Task berhasil dibuat", body.Message)
	assert.Equal(t, owner, got.UserID)
	assert.Nil(t, got.Description)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, time.March, got.Deadline.Month())

	var task model.Task
	require.NoError(t, json.Unmarshal(body.Data, &task))
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, "2030-03-01", task.Deadline.String())
}

func TestTaskHandler_CreateTaskErrors(t *testing.T) {
	app := taskApp(&stubTaskService{
		create: func(ctx context.Context, input service.CreateTaskInput) (*model.Task, error) {
			return nil, service.ErrOwnerNotFound
		},
	})

	status, body := doRequest(t, app, fiber.MethodPost, "/tasks", "", fiber.Map{"title": "t"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "title dan user_id wajib diisi", body.Message)

	status, body = doRequest(t, app, fiber.MethodPost, "/tasks", "", fiber.Map{"title": "t", "user_id": "7"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "user_id tidak valid", body.Message)

	status, body = doRequest(t, app, fiber.MethodPost, "/tasks", "", fiber.Map{"title": "t", "user_id": uuid.NewString()})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "User tidak ditemukan", body.Message)
}

func TestTaskHandler_UpdateTaskWithoutOwnerKeepsIt(t *testing.T) {
	var got service.UpdateTaskInput
	app := taskApp(&stubTaskService{
		update: func(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput) (*model.Task, error) {
			got = input
			return &model.Task{ID: id, Title: input.Title, Status: model.StatusInProgress}, nil
		},
	})

	status, body := doRequest(t, app, fiber.MethodPut, "/tasks/"+uuid.NewString(), "", fiber.Map{"title": "renamed"})
	require.Equal(t, fiber.StatusOK, status, body.Message)
	assert.Nil(t, got.UserID)
	assert.Nil(t, got.Deadline)

	status, body = doRequest(t, app, fiber.MethodPut, "/tasks/"+uuid.NewString(), "", fiber.Map{"description": "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "title wajib diisi", body.Message)
}

func TestTaskHandler_UpdateTaskNotFound(t *testing.T) {
	app := taskApp(&stubTaskService{
		update: func(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput) (*model.Task, error) {
			return nil, service.ErrTaskNotFound
		},
	})

	status, body := doRequest(t, app, fiber.MethodPut, "/tasks/"+uuid.NewString(), "", fiber.Map{"title": "t"})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Task tidak ditemukan", body.Message)
}

func TestTaskHandler_UpdateTaskStatus(t *testing.T) {
	app := taskApp(&stubTaskService{
		updateStatus: func(ctx context.Context, id uuid.UUID, status string) (*model.Task, error) {
			if !model.ValidStatus(status) {
				return nil, service.ErrInvalidStatus
			}
			return &model.Task{ID: id, Status: status}, nil
		},
	})
	path := "/tasks/" + uuid.NewString() + "/status"

	status, body := doRequest(t, app, fiber.MethodPatch, path, "", fiber.Map{"status": "completed"})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Status task berhasil diupdate", body.Message)

	status, body = doRequest(t, app, fiber.MethodPatch, path, "", fiber.Map{"status": "done"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Status harus salah satu dari: pending, in_progress, completed, cancelled", body.Message)

	status, body = doRequest(t, app, fiber.MethodPatch, path, "", fiber.Map{})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "status wajib diisi", body.Message)
}

func TestTaskHandler_GetAndDelete(t *testing.T) {
	known := uuid.New()
	app := taskApp(&stubTaskService{
		getByID: func(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error) {
			if id != known {
				return nil, service.ErrTaskNotFound
			}
			return &model.TaskDetails{Task: model.Task{ID: id, Title: "t"}, UserName: "Ana", UserEmail: "a@x.io"}, nil
		},
		delete: func(ctx context.Context, id uuid.UUID) error {
			return errors.New("connection reset")
		},
	})

	status, body := doRequest(t, app, fiber.MethodGet, "/tasks/"+known.String(), "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(body.Data), `"user_name":"Ana"`)

	status, _ = doRequest(t, app, fiber.MethodGet, "/tasks/"+uuid.NewString(), "", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, body = doRequest(t, app, fiber.MethodDelete, "/tasks/"+known.String(), "", nil)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Gagal hapus task", body.Message)
}

func TestTaskHandler_UpdateTaskRejectsNilOwner(t *testing.T) {
	called := false
	app := taskApp(&stubTaskService{
		update: func(ctx context.Context, id uuid.UUID, input service.UpdateTaskInput) (*model.Task, error) {
			called = true
			return &model.Task{ID: id}, nil
		},
	})

	status, body := doRequest(t, app, fiber.MethodPut, "/tasks/"+uuid.NewString(), "", fiber.Map{"title": "t", "user_id": uuid.Nil.String()})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "user_id tidak valid", body.Message)
	assert.False(t, called)
}
