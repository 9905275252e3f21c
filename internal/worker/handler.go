package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"task-service/internal/config"
	"task-service/internal/events"
	"task-service/internal/repository"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

const (
	maxRetries = 3
	DLQSubject = "task.notification.failed"
)

// Pusher delivers one notification. *apns2.Client implements it.
type Pusher interface {
	Push(n *apns2.Notification) (*apns2.Response, error)
}

// DeadLetterer receives events the worker gave up on. *nats.Conn implements it.
type DeadLetterer interface {
	Publish(subject string, data []byte) error
}

type Worker struct {
	devices    repository.DeviceTokenRepository
	pusher     Pusher
	dlq        DeadLetterer
	topic      string
	retryDelay time.Duration
}

// New builds a worker. A nil pusher runs in mock mode and only logs notifications.
func New(devices repository.DeviceTokenRepository, pusher Pusher, dlq DeadLetterer, topic string) *Worker {
	return &Worker{
		devices:    devices,
		pusher:     pusher,
		dlq:        dlq,
		topic:      topic,
		retryDelay: 2 * time.Second,
	}
}

// Subscribe attaches the worker to the task subjects it notifies about. Cancelling ctx
// cuts short any retry wait in progress.
func (w *Worker) Subscribe(ctx context.Context, nc *nats.Conn) ([]*nats.Subscription, error) {
	var subs []*nats.Subscription
	for _, subject := range []string{events.SubjectTaskCreated, events.SubjectTaskStatusChanged} {
		sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
			if err := w.Handle(ctx, msg.Subject, msg.Data); err != nil {
				slog.Error("Failed to handle task event", slog.String("subject", msg.Subject), slog.String("error", err.Error()))
			}
		})
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
		slog.Info("Worker listening", slog.String("subject", subject))
	}
	return subs, nil
}

// Handle notifies the owner of the task in data. Device lookups are retried; after the
// last failure the raw event goes to DLQSubject.
func (w *Worker) Handle(ctx context.Context, subject string, data []byte) error {
	var event events.TaskEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal %s: %w", subject, err)
	}

	slog.InfoContext(ctx, "Task event received",
		slog.String("subject", subject),
		slog.String("task_id", event.TaskID.String()),
		slog.String("user_id", event.UserID.String()),
	)

	tokens, err := w.deviceTokens(ctx, event.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "Giving up on device token lookup",
			slog.String("user_id", event.UserID.String()),
			slog.String("error", err.Error()),
		)
		if dlqErr := w.dlq.Publish(DLQSubject, data); dlqErr != nil {
			return fmt.Errorf("publish to %s: %w", DLQSubject, dlqErr)
		}
		slog.InfoContext(ctx, "Published failed event to DLQ", slog.String("subject", DLQSubject))
		return nil
	}

	if len(tokens) == 0 {
		slog.InfoContext(ctx, "No device tokens for user, nothing sent", slog.String("user_id", event.UserID.String()))
		return nil
	}

	body := payload.NewPayload().Alert(alertText(subject, event)).Sound("default")
	for _, deviceToken := range tokens {
		w.push(ctx, &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       w.topic,
			Payload:     body,
		})
	}

	return nil
}

func (w *Worker) deviceTokens(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		tokens, err := w.devices.ListByUser(ctx, userID)
		if err == nil {
			return tokens, nil
		}
		lastErr = err

		slog.WarnContext(ctx, "Device token lookup failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt == maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(lastErr, ctx.Err())
		case <-time.After(w.retryDelay):
		}
	}
	return nil, lastErr
}

func (w *Worker) push(ctx context.Context, n *apns2.Notification) {
	if w.pusher == nil {
		slog.InfoContext(ctx, "Push notification sent (mock)", slog.String("device", n.DeviceToken))
		return
	}

	res, err := w.pusher.Push(n)
	switch {
	case err != nil:
		slog.ErrorContext(ctx, "Failed to send notification", slog.String("device", n.DeviceToken), slog.String("error", err.Error()))
	case res.Sent():
		slog.InfoContext(ctx, "Notification sent", slog.String("apns_id", res.ApnsID))
	default:
		slog.WarnContext(ctx, "Notification rejected", slog.String("device", n.DeviceToken), slog.String("reason", res.Reason))
	}
}

func alertText(subject string, event events.TaskEvent) string {
	if subject == events.SubjectTaskStatusChanged {
		return fmt.Sprintf("Status task %q berubah menjadi %s", event.Title, event.Status)
	}
	if event.Deadline != nil {
		return fmt.Sprintf("Task baru: %s (deadline %s)", event.Title, event.Deadline.String())
	}
	return "Task baru: " + event.Title
}

// NewAPNSClient returns nil, without error, when credentials are incomplete so the worker runs in mock mode.
func NewAPNSClient(cfg config.APNSConfig) (Pusher, error) {
	if cfg.AuthKeyPath == "" || cfg.AuthKeyPath[0] == '#' || cfg.KeyID == "" || cfg.TeamID == "" {
		slog.Info("APNs credentials not found, worker will run in MOCK mode")
		return nil, nil
	}

	authKey, err := token.AuthKeyFromFile(cfg.AuthKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		return client.Production(), nil
	}
	return client.Development(), nil
}
