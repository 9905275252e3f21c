package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"task-service/internal/model"
)

const (
	SubjectTaskCreated       = "task.created"
	SubjectTaskUpdated       = "task.updated"
	SubjectTaskStatusChanged = "task.status_changed"
	SubjectTaskDeleted       = "task.deleted"
	SubjectUserDeleted       = "user.deleted"
)

type EventPublisher interface {
	PublishTaskCreated(task *model.Task) error
	PublishTaskUpdated(task *model.Task) error
	PublishTaskStatusChanged(task *model.Task) error
	PublishTaskDeleted(taskID uuid.UUID) error
	PublishUserDeleted(userID uuid.UUID) error
}

type TaskEvent struct {
	EventType  string      `json:"event_type"`
	TaskID     uuid.UUID   `json:"task_id"`
	UserID     uuid.UUID   `json:"user_id"`
	Title      string      `json:"title,omitempty"`
	Status     string      `json:"status,omitempty"`
	Deadline   *model.Date `json:"deadline,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type UserDeletedEvent struct {
	EventType  string    `json:"event_type"`
	UserID     uuid.UUID `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewTaskEvent(subject string, task *model.Task) TaskEvent {
	return TaskEvent{
		EventType:  subject,
		TaskID:     task.ID,
		UserID:     task.UserID,
		Title:      task.Title,
		Status:     task.Status,
		Deadline:   task.Deadline,
		OccurredAt: time.Now(),
	}
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("task-service"))

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}

func (p *NatsPublisher) PublishTaskCreated(task *model.Task) error {
	return p.publish(SubjectTaskCreated, NewTaskEvent(SubjectTaskCreated, task))
}

func (p *NatsPublisher) PublishTaskUpdated(task *model.Task) error {
	return p.publish(SubjectTaskUpdated, NewTaskEvent(SubjectTaskUpdated, task))
}

func (p *NatsPublisher) PublishTaskStatusChanged(task *model.Task) error {
	return p.publish(SubjectTaskStatusChanged, NewTaskEvent(SubjectTaskStatusChanged, task))
}

func (p *NatsPublisher) PublishTaskDeleted(taskID uuid.UUID) error {
	return p.publish(SubjectTaskDeleted, TaskEvent{
		EventType:  SubjectTaskDeleted,
		TaskID:     taskID,
		OccurredAt: time.Now(),
	})
}

func (p *NatsPublisher) PublishUserDeleted(userID uuid.UUID) error {
	return p.publish(SubjectUserDeleted, UserDeletedEvent{
		EventType:  SubjectUserDeleted,
		UserID:     userID,
		OccurredAt: time.Now(),
	})
}

func (p *NatsPublisher) publish(subject string, event any) error {
	eventJSON, err := json.Marshal(event)

	if err != nil {
		slog.Error("Error marshalling event JSON", slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	slog.Debug("Published event to NATS", slog.String("subject", subject))

	return nil
}

// NopPublisher drops every event. It stands in when NATS is unreachable at startup.
type NopPublisher struct{}

func (NopPublisher) PublishTaskCreated(*model.Task) error       { return nil }
func (NopPublisher) PublishTaskUpdated(*model.Task) error       { return nil }
func (NopPublisher) PublishTaskStatusChanged(*model.Task) error { return nil }
func (NopPublisher) PublishTaskDeleted(uuid.UUID) error         { return nil }
func (NopPublisher) PublishUserDeleted(uuid.UUID) error         { return nil }
