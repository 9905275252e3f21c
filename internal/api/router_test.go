package api

import (
	"context"
	"encoding/json"
	"testing"

	"task-service/internal/model"
	"task-service/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserService struct {
	service.UserService

	users   map[uuid.UUID]model.User
	avatars map[uuid.UUID]string
}

func newStubUserService() *stubUserService {
	return &stubUserService{users: map[uuid.UUID]model.User{}, avatars: map[uuid.UUID]string{}}
}

func (s *stubUserService) List(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	return &u, nil
}

func (s *stubUserService) Create(ctx context.Context, input service.CreateUserInput) (*model.User, error) {
	for _, u := range s.users {
		if u.Email == input.Email {
			return nil, service.ErrDuplicateEmail
		}
	}
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	u := model.User{ID: uuid.New(), Name: input.Name, Email: input.Email, PasswordHash: "hash", Role: role}
	s.users[u.ID] = u
	return &u, nil
}

func (s *stubUserService) Update(ctx context.Context, id uuid.UUID, name, email string) (*model.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, service.ErrUserNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return nil, service.ErrDuplicateEmail
		}
	}
	u.Name, u.Email = name, email
	s.users[id] = u
	return &u, nil
}

func (s *stubUserService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.users[id]; !ok {
		return service.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *stubUserService) AvatarUploadURL(ctx context.Context, userID uuid.UUID) (*service.AvatarUpload, error) {
	return nil, service.ErrStorageDisabled
}

type stubDashboard struct{}

func (stubDashboard) Summary(ctx context.Context) (*model.Summary, error) {
	return &model.Summary{
		TotalTasks: 3,
		TotalUsers: 2,
		TasksByStatus: map[string]int{
			model.StatusPending: 2, model.StatusInProgress: 0, model.StatusCompleted: 1, model.StatusCancelled: 0,
		},
	}, nil
}

func routedApp(users service.UserService, adminRoles ...string) *fiber.App {
	app := fiber.New()
	SetupRoutes(app, Handlers{
		Auth:      NewAuthHandler(nil),
		Users:     NewUserHandler(users),
		Tasks:     NewTaskHandler(&stubTaskService{}),
		Dashboard: NewDashboardHandler(stubDashboard{}),
	}, RouteConfig{
		Verifier:       newManager(),
		UserAdminRoles: adminRoles,
	})
	return app
}

func TestRoutes_RequireBearerToken(t *testing.T) {
	app := routedApp(newStubUserService())

	for _, path := range []string{"/api/users", "/api/tasks", "/api/dashboard", "/api/tasks/" + uuid.NewString()} {
		status, body := doRequest(t, app, fiber.MethodGet, path, "", nil)
		assert.Equal(t, fiber.StatusUnauthorized, status, path)
		assert.Equal(t, "Token tidak ada", body.Message)
	}
}

func TestRoutes_UserWritesHonourAdminRoles(t *testing.T) {
	users := newStubUserService()
	app := routedApp(users, model.RoleAdmin)
	userToken, _ := issueToken(t, model.RoleUser)
	adminToken, _ := issueToken(t, model.RoleAdmin)
	payload := fiber.Map{"name": "Budi", "email": "budi@x.io", "password": "pw"}

	status, body := doRequest(t, app, fiber.MethodPost, "/api/users", userToken, payload)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Akses ditolak", body.Message)

	status, _ = doRequest(t, app, fiber.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = doRequest(t, app, fiber.MethodPost, "/api/users", adminToken, payload)
	require.Equal(t, fiber.StatusCreated, status, body.Message)
	assert.NotContains(t, string(body.Data), "hash")
}

func TestRoutes_UserCRUD(t *testing.T) {
	users := newStubUserService()
	app := routedApp(users)
	token, _ := issueToken(t, model.RoleUser)

	status, body := doRequest(t, app, fiber.MethodPost, "/api/users", token, fiber.Map{"name": "A", "email": "a@x.io", "password": "pw"})
	require.Equal(t, fiber.StatusCreated, status)
	var a model.PublicUser
	require.NoError(t, json.Unmarshal(body.Data, &a))
	assert.Equal(t, model.RoleUser, a.Role)

	status, body = doRequest(t, app, fiber.MethodPost, "/api/users", token, fiber.Map{"name": "A2", "email": "a@x.io", "password": "pw"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email sudah terdaftar", body.Message)

	status, body = doRequest(t, app, fiber.MethodPost, "/api/users", token, fiber.Map{"name": "B", "email": "b@x.io", "password": "pw"})
	require.Equal(t, fiber.StatusCreated, status)
	var b model.PublicUser
	require.NoError(t, json.Unmarshal(body.Data, &b))

	status, body = doRequest(t, app, fiber.MethodPut, "/api/users/"+b.ID.String(), token, fiber.Map{"name": "B", "email": "a@x.io"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Email sudah digunakan oleh user lain", body.Message)

	status, body = doRequest(t, app, fiber.MethodPut, "/api/users/"+b.ID.String(), token, fiber.Map{"name": "Beta"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "name dan email wajib diisi", body.Message)

	status, _ = doRequest(t, app, fiber.MethodGet, "/api/users/"+a.ID.String(), token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = doRequest(t, app, fiber.MethodGet, "/api/users/not-a-uuid", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, msgInvalidID, body.Message)

	status, _ = doRequest(t, app, fiber.MethodDelete, "/api/users/"+a.ID.String(), token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = doRequest(t, app, fiber.MethodGet, "/api/users/"+a.ID.String(), token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "User tidak ditemukan", body.Message)
}

func TestRoutes_AvatarWithoutStorage(t *testing.T) {
	app := routedApp(newStubUserService())
	token, _ := issueToken(t, model.RoleUser)

	status, _ := doRequest(t, app, fiber.MethodPost, "/api/users/me/avatar/upload-url", token, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
}

func TestRoutes_Dashboard(t *testing.T) {
	app := routedApp(newStubUserService())
	token, _ := issueToken(t, model.RoleUser)

	status, body := doRequest(t, app, fiber.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, fiber.StatusOK, status)

	var summary model.Summary
	require.NoError(t, json.Unmarshal(body.Data, &summary))
	assert.Equal(t, 3, summary.TotalTasks)
	assert.Equal(t, 2, summary.TotalUsers)
	assert.Len(t, summary.TasksByStatus, 4)
	assert.JSONEq(t, `{"pending":2,"in_progress":0,"completed":1,"cancelled":0}`, mustJSON(t, summary.TasksByStatus))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}
