package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"task-service/internal/model"
)

const taskColumns = `id, title, description, status, deadline, user_id, created_at, updated_at`

const taskDetailsSelect = `
	SELECT
		t.id, t.title, t.description, t.status, t.deadline, t.user_id, t.created_at, t.updated_at,
		u.name AS user_name,
		u.email AS user_email
	FROM tasks t
	JOIN users u ON t.user_id = u.id`

type TaskRepository interface {
	List(ctx context.Context) ([]model.TaskDetails, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error)
	Create(ctx context.Context, task *model.Task) (*model.Task, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, update TaskDetailsUpdate) (*model.Task, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
}

// TaskDetailsUpdate replaces title, description and deadline. A nil UserID keeps the current owner.
type TaskDetailsUpdate struct {
	Title       string
	Description *string
	UserID      *uuid.UUID
	Deadline    *model.Date
}

type postgresTaskRepository struct {
	db *sqlx.DB
}

func NewPostgresTaskRepository(db *sqlx.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

// List orders by deadline with undated tasks after every dated one, newest first within a day.
func (r *postgresTaskRepository) List(ctx context.Context) ([]model.TaskDetails, error) {
	tasks := []model.TaskDetails{}
	query := taskDetailsSelect + ` ORDER BY t.deadline ASC NULLS LAST, t.created_at DESC`
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *postgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error) {
	var task model.TaskDetails
	query := taskDetailsSelect + ` WHERE t.id = $1`
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, classify(err)
	}
	return &task, nil
}

// Create always inserts a pending task. An unknown owner surfaces as ErrForeignKeyViolation.
func (r *postgresTaskRepository) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	var created model.Task
	query := `
		INSERT INTO tasks (title, description, user_id, deadline, status)
		VALUES ($1, $2, $3, $4, 'pending')
		RETURNING ` + taskColumns
	err := r.db.GetContext(ctx, &created, query, task.Title, nullable(task.Description), task.UserID, nullableDate(task.Deadline))
	if err != nil {
		return nil, classify(err)
	}
	return &created, nil
}

func (r *postgresTaskRepository) UpdateDetails(ctx context.Context, id uuid.UUID, update TaskDetailsUpdate) (*model.Task, error) {
	var owner any
	if update.UserID != nil {
		owner = *update.UserID
	}

	var task model.Task
	query := `
		UPDATE tasks
		SET title = $1, description = $2, user_id = COALESCE($3, user_id), deadline = $4, updated_at = now()
		WHERE id = $5
		RETURNING ` + taskColumns
	err := r.db.GetContext(ctx, &task, query, update.Title, nullable(update.Description), owner, nullableDate(update.Deadline), id)
	if err != nil {
		return nil, classify(err)
	}
	return &task, nil
}

func (r *postgresTaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error) {
	var task model.Task
	query := `UPDATE tasks SET status = $1, updated_at = now() WHERE id = $2 RETURNING ` + taskColumns
	if err := r.db.GetContext(ctx, &task, query, status, id); err != nil {
		return nil, classify(err)
	}
	return &task, nil
}

func (r *postgresTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return requireAffected(res)
}

func (r *postgresTaskRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tasks`); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresTaskRepository) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	counts := []model.StatusCount{}
	query := `SELECT status, COUNT(*) AS count FROM tasks GROUP BY status`
	if err := r.db.SelectContext(ctx, &counts, query); err != nil {
		return nil, err
	}
	return counts, nil
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableDate(d *model.Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}
