package client

import (
	"sync"

	"task-service/internal/model"

	"github.com/google/uuid"
)

// State caches the last fetched lists. Readers get copies.
type State struct {
	mu    sync.RWMutex
	tasks []model.TaskDetails
	users []model.PublicUser
}

func (s *State) Tasks() []model.TaskDetails {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.TaskDetails(nil), s.tasks...)
}

func (s *State) Users() []model.PublicUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.PublicUser(nil), s.users...)
}

// Reset empties both lists.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.users = nil
}

func (s *State) setTasks(tasks []model.TaskDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]model.TaskDetails(nil), tasks...)
}

func (s *State) setUsers(users []model.PublicUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]model.PublicUser(nil), users...)
}

// replaceTask swaps in new task fields for a cached entry. A new owner's details
// come from the cached users, or are left blank until the next fetch.
func (s *State) replaceTask(task *model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != task.ID {
			continue
		}
		if s.tasks[i].UserID != task.UserID {
			s.tasks[i].UserName, s.tasks[i].UserEmail = "", ""
			for _, u := range s.users {
				if u.ID == task.UserID {
					s.tasks[i].UserName, s.tasks[i].UserEmail = u.Name, u.Email
					break
				}
			}
		}
		s.tasks[i].Task = *task
		return
	}
}

func (s *State) removeTask(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]model.TaskDetails, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks
}

// removeUser also drops the user's tasks, which the server deletes with them.
func (s *State) removeUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]model.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		if u.ID != id {
			users = append(users, u)
		}
	}
	s.users = users

	tasks := make([]model.TaskDetails, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.UserID != id {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks
}
