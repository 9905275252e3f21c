package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"task-service/internal/jwt"
	"task-service/internal/model"
	"task-service/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("api-test-secret")

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newManager() *jwt.Manager {
	return jwt.NewManager(testSecret, time.Hour)
}

func issueToken(t *testing.T, role string) (string, *jwt.Claims) {
	t.Helper()
	token, claims, err := newManager().Issue(jwt.Identity{
		ID:    uuid.New(),
		Email: "caller@example.com",
		Name:  "Caller",
		Role:  role,
	})
	require.NoError(t, err)
	return token, claims
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

// memoryUserStore backs a real AuthService in handler tests.
type memoryUserStore struct {
	repository.UserRepository

	mu    sync.Mutex
	users map[string]model.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: map[string]model.User{}}
}

func (s *memoryUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *memoryUserStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return nil, repository.ErrUniqueViolation
	}
	created := *user
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	s.users[user.Email] = created
	return &created, nil
}

type memoryRevocations struct {
	repository.TokenRepository

	mu      sync.Mutex
	revoked map[string]bool
}

func (s *memoryRevocations) Revoke(ctx context.Context, token *model.RevokedToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[token.TokenID] = true
	return nil
}

func (s *memoryRevocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revoked[tokenID], nil
}

func newRawRequest(path, authorization string) *http.Request {
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	return req
}
