package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"task-service/internal/jwt"
	"task-service/internal/model"
	"task-service/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	hashCost = bcrypt.MinCost
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	err   error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: map[uuid.UUID]model.User{}}
}

func (r *memoryUsers) List(ctx context.Context) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *memoryUsers) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *memoryUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryUsers) Create(ctx context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, repository.ErrUniqueViolation
		}
	}
	created := *user
	created.ID = uuid.New()
	created.CreatedAt = time.Now().Add(time.Duration(len(r.users)) * time.Millisecond)
	r.users[created.ID] = created
	return &created, nil
}

func (r *memoryUsers) Update(ctx context.Context, id uuid.UUID, name, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && other.Email == email {
			return nil, repository.ErrUniqueViolation
		}
	}
	u.Name, u.Email = name, email
	r.users[id] = u
	return &u, nil
}

func (r *memoryUsers) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = &avatarURL
	r.users[id] = u
	return nil
}

func (r *memoryUsers) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUsers) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	return len(r.users), nil
}

func (r *memoryUsers) exists(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok
}

type memoryTasks struct {
	mu    sync.Mutex
	users *memoryUsers
	tasks map[uuid.UUID]model.Task
	err   error
}

func newMemoryTasks(users *memoryUsers) *memoryTasks {
	return &memoryTasks{users: users, tasks: map[uuid.UUID]model.Task{}}
}

func (r *memoryTasks) details(t model.Task) model.TaskDetails {
	d := model.TaskDetails{Task: t}
	if u, err := r.users.FindByID(context.Background(), t.UserID); err == nil {
		d.UserName, d.UserEmail = u.Name, u.Email
	}
	return d
}

func (r *memoryTasks) List(ctx context.Context) ([]model.TaskDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.TaskDetails, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, r.details(t))
	}
	return out, nil
}

func (r *memoryTasks) FindByID(ctx context.Context, id uuid.UUID) (*model.TaskDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	d := r.details(t)
	return &d, nil
}

func (r *memoryTasks) Create(ctx context.Context, task *model.Task) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.users.exists(task.UserID) {
		return nil, repository.ErrForeignKeyViolation
	}
	created := *task
	created.ID = uuid.New()
	created.Status = model.StatusPending
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.tasks[created.ID] = created
	return &created, nil
}

func (r *memoryTasks) UpdateDetails(ctx context.Context, id uuid.UUID, update repository.TaskDetailsUpdate) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.UserID != nil {
		if !r.users.exists(*update.UserID) {
			return nil, repository.ErrForeignKeyViolation
		}
		t.UserID = *update.UserID
	}
	t.Title = update.Title
	t.Description = update.Description
	t.Deadline = update.Deadline
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return &t, nil
}

func (r *memoryTasks) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	r.tasks[id] = t
	return &t, nil
}

func (r *memoryTasks) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memoryTasks) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks), r.err
}

func (r *memoryTasks) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	counts := map[string]int{}
	for _, t := range r.tasks {
		counts[t.Status]++
	}
	out := make([]model.StatusCount, 0, len(counts))
	for status, n := range counts {
		out = append(out, model.StatusCount{Status: status, Count: n})
	}
	return out, nil
}

type memoryTokens struct {
	mu      sync.Mutex
	revoked map[string]model.RevokedToken
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{revoked: map[string]model.RevokedToken{}}
}

func (r *memoryTokens) Revoke(ctx context.Context, token *model.RevokedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token.TokenID] = *token
	return nil
}

func (r *memoryTokens) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[tokenID]
	return ok, nil
}

func (r *memoryTokens) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, t := range r.revoked {
		if t.ExpiresAt.Before(before) {
			delete(r.revoked, id)
			n++
		}
	}
	return n, nil
}

type memoryDevices struct {
	mu     sync.Mutex
	users  *memoryUsers
	tokens map[string]uuid.UUID
}

func (r *memoryDevices) Register(ctx context.Context, userID uuid.UUID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.users.exists(userID) {
		return repository.ErrForeignKeyViolation
	}
	r.tokens[token] = userID
	return nil
}

func (r *memoryDevices) ListByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for token, owner := range r.tokens {
		if owner == userID {
			out = append(out, token)
		}
	}
	return out, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) record(subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func (p *recordingPublisher) PublishTaskCreated(*model.Task) error { return p.record("task.created") }
func (p *recordingPublisher) PublishTaskUpdated(*model.Task) error { return p.record("task.updated") }
func (p *recordingPublisher) PublishTaskStatusChanged(*model.Task) error {
	return p.record("task.status_changed")
}
func (p *recordingPublisher) PublishTaskDeleted(uuid.UUID) error { return p.record("task.deleted") }
func (p *recordingPublisher) PublishUserDeleted(uuid.UUID) error { return p.record("user.deleted") }

type stubPresigner struct {
	key string
}

func (p *stubPresigner) PresignUpload(ctx context.Context, objectKey string) (string, string, error) {
	p.key = objectKey
	return "https://upload.example/" + objectKey, "https://cdn.example/" + objectKey, nil
}

func newTestManager() *jwt.Manager {
	return jwt.NewManager([]byte("test-secret"), time.Hour)
}
