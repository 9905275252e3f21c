package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/nats-io/nats.go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"task-service/internal/api"
	"task-service/internal/config"
	"task-service/internal/repository"
	"task-service/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api.SetupGlobalHandler("notification-worker", cfg.LogLevel)

	pusher, err := worker.NewAPNSClient(cfg.APNS)
	if err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}

	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Drain()

	w := worker.New(repository.NewPostgresDeviceTokenRepository(db), pusher, nc, cfg.APNS.Topic)
	if _, err := w.Subscribe(ctx, nc); err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	slog.Info("Notification worker started, waiting for events...")

	<-ctx.Done()

	slog.Info("Shutting down notification worker...")
}
