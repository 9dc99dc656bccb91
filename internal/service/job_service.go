package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobtracker/internal/cache"
	"jobtracker/internal/models"
	"jobtracker/internal/repository"
	"jobtracker/internal/validation"
)

type JobService struct {
	jobs     repository.JobRepository
	cacheTTL time.Duration
	clock    func() time.Time
}

func NewJobService(jobs repository.JobRepository, cacheTTL time.Duration) *JobService {
	return &JobService{jobs: jobs, cacheTTL: cacheTTL, clock: time.Now}
}

// WithClock overrides the clock used for dashboard averages.
func (s *JobService) WithClock(clock func() time.Time) *JobService {
	s.clock = clock
	return s
}

func (s *JobService) List(ctx context.Context, userID uint) ([]models.Job, error) {
	return s.jobs.ListByUser(ctx, userID)
}

func (s *JobService) Get(ctx context.Context, id, userID uint) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, models.NewNotFoundError("Job", id)
	}
	return job, nil
}

func (s *JobService) Create(ctx context.Context, userID uint, in models.JobInput) (*models.Job, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	job, err := s.jobs.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, userID)
	return job, nil
}

func (s *JobService) Update(ctx context.Context, id, userID uint, in models.JobInput) error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	n, err := s.jobs.Update(ctx, id, userID, in)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("Job", id)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

func (s *JobService) Delete(ctx context.Context, id, userID uint) error {
	n, err := s.jobs.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("Job", id)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// SaveGrid applies an edited job grid. Every row is validated before
// anything is written.
func (s *JobService) SaveGrid(ctx context.Context, userID uint, rows []models.JobRow) (models.ReplaceResult, error) {
	for i, row := range rows {
		if err := validation.Struct(row); err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) {
				return models.ReplaceResult{}, models.NewValidationError(fmt.Sprintf("row %d: %s", i+1, appErr.Message))
			}
			return models.ReplaceResult{}, err
		}
	}
	result, err := s.jobs.ReplaceAll(ctx, userID, rows)
	if err != nil {
		return result, err
	}
	cache.InvalidateUser(ctx, userID)
	return result, nil
}

// Stats returns the user's aggregate counts, served from Redis when cached.
func (s *JobService) Stats(ctx context.Context, userID uint) (*models.UserStats, error) {
	var stats models.UserStats
	err := cache.CacheAside(ctx, cache.StatsKey(userID), &stats, s.cacheTTL, func() error {
		fresh, err := s.jobs.Stats(ctx, userID)
		if err != nil {
			return err
		}
		stats = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Dashboard computes the dashboard metrics from the user's jobs.
func (s *JobService) Dashboard(ctx context.Context, userID uint) (*Dashboard, error) {
	var dash Dashboard
	err := cache.CacheAside(ctx, cache.DashboardKey(userID), &dash, s.cacheTTL, func() error {
		jobs, err := s.jobs.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		dash = ComputeDashboard(jobs, s.clock())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dash, nil
}
