// Package client talks to the task service API and holds the caller's session and the
// last fetched task and user lists.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"task-service/internal/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrNoSession    = errors.New("client: not logged in")
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithStore(s Store) Option {
	return func(c *Client) { c.store = s }
}

type Client struct {
	baseURL string
	http    *http.Client
	store   Store
	state   State

	mu      sync.RWMutex
	session *Session
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// New restores any session the store holds.
func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		store: &MemoryStore{},
	}
	for _, opt := range opts {
		opt(c)
	}

	session, err := c.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	c.session = session

	return c, nil
}

// Session returns the current session or nil.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) State() *State {
	return &c.state
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{"name": name, "email": email, "password": password})
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, path, body, &session); err != nil {
		return nil, err
	}
	if err := c.setSession(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Logout tells the server to revoke the token and forgets the session even when that call fails.
func (c *Client) Logout(ctx context.Context) error {
	if c.Session() == nil {
		return nil
	}
	serverErr := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	if errors.Is(serverErr, ErrUnauthorized) {
		serverErr = nil
	}
	return errors.Join(serverErr, c.clearSession())
}

func (c *Client) Users(ctx context.Context) ([]model.PublicUser, error) {
	var users []model.PublicUser
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	c.state.setUsers(users)
	return users, nil
}

func (c *Client) User(ctx context.Context, id uuid.UUID) (*model.PublicUser, error) {
	var user model.PublicUser
	if err := c.do(ctx, http.MethodGet, "/api/users/"+id.String(), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*model.PublicUser, error) {
	var user model.PublicUser
	if err := c.do(ctx, http.MethodPost, "/api/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateUser(ctx context.Context, id uuid.UUID, name, email string) (*model.PublicUser, error) {
	var user model.PublicUser
	if err := c.do(ctx, http.MethodPut, "/api/users/"+id.String(), map[string]string{"name": name, "email": email}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := c.do(ctx, http.MethodDelete, "/api/users/"+id.String(), nil, nil); err != nil {
		return err
	}
	c.state.removeUser(id)
	return nil
}

func (c *Client) Tasks(ctx context.Context) ([]model.TaskDetails, error) {
	var tasks []model.TaskDetails
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	c.state.setTasks(tasks)
	return tasks, nil
}

func (c *Client) Task(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error) {
	var task model.TaskDetails
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+id.String(), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

type TaskRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	UserID      *uuid.UUID  `json:"user_id,omitempty"`
	Deadline    *model.Date `json:"deadline,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, req TaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uuid.UUID, req TaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+id.String(), req, &task); err != nil {
		return nil, err
	}
	c.state.replaceTask(&task)
	return &task, nil
}

func (c *Client) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+id.String()+"/status", map[string]string{"status": status}, &task); err != nil {
		return nil, err
	}
	c.state.replaceTask(&task)
	return &task, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uuid.UUID) error {
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+id.String(), nil, nil); err != nil {
		return err
	}
	c.state.removeTask(id)
	return nil
}

func (c *Client) Dashboard(ctx context.Context) (*model.Summary, error) {
	var summary model.Summary
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s := c.Session(); s != nil {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized && c.Session() != nil {
		if err := c.clearSession(); err != nil {
			return err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func (c *Client) setSession(s *Session) error {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	return c.store.Save(s)
}

// clearSession forgets the identity and the cached lists.
func (c *Client) clearSession() error {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
	c.state.Reset()
	return c.store.Clear()
}
