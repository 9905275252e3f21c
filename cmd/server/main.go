package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/jackc/pgx/v5/stdlib"

	"task-service/internal/api"
	"task-service/internal/config"
	"task-service/internal/events"
	"task-service/internal/jwt"
	"task-service/internal/repository"
	"task-service/internal/s3"
	"task-service/internal/service"
	"task-service/internal/tracing"
	_ "task-service/migrations"
)

const (
	serviceName   = "task-service"
	purgeInterval = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	api.SetupGlobalHandler(serviceName, cfg.LogLevel)

	shutdownTracer := tracing.ShutdownFunc(tracing.Noop)
	if cfg.TracingEnabled {
		shutdownTracer, err = tracing.InitTracerProvider(context.Background(), serviceName, cfg.OtelEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
		}
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Error("Error shutting down tracer provider", slog.String("error", err.Error()))
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		handleMigrations(cfg)
		return
	}

	db := connectDB(cfg)
	defer db.Close()

	var eventPublisher events.EventPublisher = events.NopPublisher{}
	natsPublisher, err := events.NewNatsPublisher(cfg.NatsURL)
	if err != nil {
		slog.Warn("Failed to connect to NATS, events will not be published", slog.String("error", err.Error()))
	} else {
		defer natsPublisher.Close()
		eventPublisher = natsPublisher
		slog.Info("Successfully connected to NATS.")
	}

	var presigner service.UploadPresigner
	if cfg.S3Enabled() {
		filePresigner, err := s3.NewFilePresigner(context.Background(), cfg.S3)
		if err != nil {
			log.Fatalf("Failed to initialize S3 presigner: %v", err)
		}
		presigner = filePresigner
	}

	tokens := jwt.NewManager([]byte(cfg.JWT.Secret), cfg.JWT.TTL)

	userRepo := repository.NewPostgresUserRepository(db)
	taskRepo := repository.NewPostgresTaskRepository(db)
	tokenRepo := repository.NewPostgresTokenRepository(db)
	deviceRepo := repository.NewPostgresDeviceTokenRepository(db)

	authService := service.NewAuthService(userRepo, tokenRepo, tokens)
	userService := service.NewUserService(userRepo, deviceRepo, presigner, eventPublisher)
	taskService := service.NewTaskService(taskRepo, eventPublisher)
	dashboardService := service.NewDashboardService(userRepo, taskRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go purgeRevokedTokens(ctx, tokenRepo)

	app := fiber.New(fiber.Config{AppName: serviceName})
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": serviceName})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api.SetupRoutes(app, api.Handlers{
		Auth:      api.NewAuthHandler(authService),
		Users:     api.NewUserHandler(userService),
		Tasks:     api.NewTaskHandler(taskService),
		Dashboard: api.NewDashboardHandler(dashboardService),
	}, api.RouteConfig{
		Verifier:       tokens,
		Revocations:    authService,
		UserAdminRoles: cfg.UserAdminRoles,
		QueryTimeout:   cfg.Database.QueryTimeout,
	})

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			slog.Error("Graceful shutdown failed", slog.String("error", err.Error()))
		}
	}()

	slog.Info("Listening", slog.String("service", serviceName), slog.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func connectDB(cfg *config.Config) *sqlx.DB {
	db, err := sqlx.Connect("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("Successfully connected to the database.")
	return db
}

func handleMigrations(cfg *config.Config) {
	slog.Info("Running database migrations...")

	db, err := sql.Open("pgx", cfg.DatabaseURL())
	if err != nil {
		log.Fatalf("failed to connect to database for migration: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("failed to set goose dialect: %v", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		log.Fatalf("goose: failed to run migrations: %v", err)
	}

	slog.Info("Migrations applied successfully!")

	if cfg.Admin.Email == "" {
		return
	}

	dbx := sqlx.NewDb(db, "pgx")
	authService := service.NewAuthService(
		repository.NewPostgresUserRepository(dbx),
		repository.NewPostgresTokenRepository(dbx),
		jwt.NewManager([]byte(cfg.JWT.Secret), cfg.JWT.TTL),
	)
	created, err := authService.EnsureAdmin(context.Background(), cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		log.Fatalf("failed to seed admin user: %v", err)
	}
	if created {
		slog.Info("Admin user created", slog.String("email", cfg.Admin.Email))
	} else {
		slog.Info("Admin user already exists", slog.String("email", cfg.Admin.Email))
	}
}

func purgeRevokedTokens(ctx context.Context, tokenRepo repository.TokenRepository) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := tokenRepo.PurgeExpired(ctx, time.Now())
			if err != nil {
				slog.Error("Failed to purge revoked tokens", slog.String("error", err.Error()))
				continue
			}
			if n > 0 {
				slog.Info("Purged expired revoked tokens", slog.Int64("count", n))
			}
		}
	}
}
