package service

import (
	"context"

	"task-service/internal/model"
	"task-service/internal/repository"

	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	Summary(ctx context.Context) (*model.Summary, error)
}

type dashboardService struct {
	userRepo repository.UserRepository
	taskRepo repository.TaskRepository
}

func NewDashboardService(userRepo repository.UserRepository, taskRepo repository.TaskRepository) DashboardService {
	return &dashboardService{userRepo: userRepo, taskRepo: taskRepo}
}

// Summary runs the three counting queries concurrently. The counts are not a consistent
// snapshot when writes land in between. Every status appears in TasksByStatus, zero when absent.
func (s *dashboardService) Summary(ctx context.Context) (*model.Summary, error) {
	var (
		totalTasks int
		totalUsers int
		byStatus   []model.StatusCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totalTasks, err = s.taskRepo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		totalUsers, err = s.userRepo.Count(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		byStatus, err = s.taskRepo.CountByStatus(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tasksByStatus := make(map[string]int, len(model.Statuses))
	for _, status := range model.Statuses {
		tasksByStatus[status] = 0
	}
	for _, sc := range byStatus {
		tasksByStatus[sc.Status] = sc.Count
	}

	return &model.Summary{
		TotalTasks:    totalTasks,
		TotalUsers:    totalUsers,
		TasksByStatus: tasksByStatus,
	}, nil
}
