package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Tasks     *TaskHandler
	Dashboard *DashboardHandler
}

type RouteConfig struct {
	Verifier    TokenVerifier
	Revocations RevocationChecker
	// UserAdminRoles restricts user writes. Empty admits any authenticated caller.
	UserAdminRoles []string
	QueryTimeout   time.Duration
}

// SetupRoutes mounts every endpoint under /api.
func SetupRoutes(app *fiber.App, h Handlers, cfg RouteConfig) {
	authenticated := RequireAuth(cfg.Verifier, cfg.Revocations)
	userAdmin := RequireAuth(cfg.Verifier, cfg.Revocations, cfg.UserAdminRoles...)

	root := app.Group("/api", QueryTimeout(cfg.QueryTimeout))

	authRoutes := root.Group("/auth")
	authRoutes.Post("/register", h.Auth.Register)
	authRoutes.Post("/login", h.Auth.Login)
	authRoutes.Post("/logout", authenticated, h.Auth.Logout)

	userRoutes := root.Group("/users")
	userRoutes.Post("/me/avatar/upload-url", authenticated, h.Users.AvatarUploadURL)
	userRoutes.Put("/me/avatar", authenticated, h.Users.SetAvatar)
	userRoutes.Post("/me/device-token", authenticated, h.Users.RegisterDeviceToken)
	userRoutes.Get("/", authenticated, h.Users.ListUsers)
	userRoutes.Get("/:id", authenticated, h.Users.GetUser)
	userRoutes.Post("/", userAdmin, h.Users.CreateUser)
	userRoutes.Put("/:id", userAdmin, h.Users.UpdateUser)
	userRoutes.Delete("/:id", userAdmin, h.Users.DeleteUser)

	taskRoutes := root.Group("/tasks", authenticated)
	taskRoutes.Get("/", h.Tasks.ListTasks)
	taskRoutes.Get("/:id", h.Tasks.GetTask)
	taskRoutes.Post("/", h.Tasks.CreateTask)
	taskRoutes.Put("/:id", h.Tasks.UpdateTask)
	taskRoutes.Patch("/:id/status", h.Tasks.UpdateTaskStatus)
	taskRoutes.Delete("/:id", h.Tasks.DeleteTask)

	root.Get("/dashboard", authenticated, h.Dashboard.Summary)
}
