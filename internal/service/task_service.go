package service

import (
	"context"
	"errors"
	"strings"

	"task-service/internal/events"
	"task-service/internal/model"
	"task-service/internal/repository"

	"github.com/google/uuid"
)

type CreateTaskInput struct {
	Title       string
	Description *string
	UserID      uuid.UUID
	Deadline    *model.Date
}

type UpdateTaskInput struct {
	Title       string
	Description *string
	// UserID nil keeps the current owner.
	UserID   *uuid.UUID
	Deadline *model.Date
}

type TaskService interface {
	List(ctx context.Context) ([]model.TaskDetails, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error)
	Create(ctx context.Context, input CreateTaskInput) (*model.Task, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, input UpdateTaskInput) (*model.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskService struct {
	taskRepo  repository.TaskRepository
	publisher events.EventPublisher
}

func NewTaskService(repo repository.TaskRepository, pub events.EventPublisher) TaskService {
	return &taskService{taskRepo: repo, publisher: pub}
}

func (s *taskService) List(ctx context.Context) ([]model.TaskDetails, error) {
	return s.taskRepo.List(ctx)
}

func (s *taskService) GetByID(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, taskError(err)
	}
	return task, nil
}

// Create inserts a pending task. Owner existence is enforced by the foreign key, not a prior lookup.
func (s *taskService) Create(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Title) == "" || input.UserID == uuid.Nil {
		return nil, validationError("title and user_id are required")
	}

	created, err := s.taskRepo.Create(ctx, &model.Task{
		Title:       input.Title,
		Description: input.Description,
		UserID:      input.UserID,
		Deadline:    input.Deadline,
	})
	if err != nil {
		return nil, taskError(err)
	}

	go s.publisher.PublishTaskCreated(created)

	return created, nil
}

func (s *taskService) UpdateDetails(ctx context.Context, id uuid.UUID, input UpdateTaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationError("title is required")
	}

	if input.UserID != nil && *input.UserID == uuid.Nil {
		return nil, validationError("user_id is invalid")
	}

	updated, err := s.taskRepo.UpdateDetails(ctx, id, repository.TaskDetailsUpdate{
		Title:       input.Title,
		Description: input.Description,
		UserID:      input.UserID,
		Deadline:    input.Deadline,
	})
	if err != nil {
		return nil, taskError(err)
	}

	go s.publisher.PublishTaskUpdated(updated)

	return updated, nil
}

// UpdateStatus is the only way to change a task's status. Any status may follow any other.
func (s *taskService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error) {
	if !model.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}

	updated, err := s.taskRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, taskError(err)
	}

	go s.publisher.PublishTaskStatusChanged(updated)

	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return taskError(err)
	}

	go s.publisher.PublishTaskDeleted(id)

	return nil
}

func taskError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTaskNotFound
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return ErrOwnerNotFound
	default:
		return err
	}
}
