package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobtracker/internal/cache"
	"jobtracker/internal/database"
	"jobtracker/internal/models"
	"jobtracker/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	store := repository.NewSQLStore(db, repository.WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestUser(t *testing.T, store repository.Store, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "x"}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cache.Close() })
	return mr
}

// jobRepoStub is a stub for repository.JobRepository.
type jobRepoStub struct {
	listFn    func(context.Context, uint) ([]models.Job, error)
	createFn  func(context.Context, uint, models.JobInput) (*models.Job, error)
	replaceFn func(context.Context, uint, []models.JobRow) (models.ReplaceResult, error)
	statsFn   func(context.Context, uint) (*models.UserStats, error)
}

func (s *jobRepoStub) ListByUser(ctx context.Context, userID uint) ([]models.Job, error) {
	return s.listFn(ctx, userID)
}
func (s *jobRepoStub) GetByID(context.Context, uint, uint) (*models.Job, error) {
	return nil, nil
}
func (s *jobRepoStub) Create(ctx context.Context, userID uint, in models.JobInput) (*models.Job, error) {
	return s.createFn(ctx, userID, in)
}
func (s *jobRepoStub) Update(context.Context, uint, uint, models.JobInput) (int64, error) {
	return 0, nil
}
func (s *jobRepoStub) Delete(context.Context, uint, uint) (int64, error) {
	return 0, nil
}
func (s *jobRepoStub) ReplaceAll(ctx context.Context, userID uint, rows []models.JobRow) (models.ReplaceResult, error) {
	return s.replaceFn(ctx, userID, rows)
}
func (s *jobRepoStub) Stats(ctx context.Context, userID uint) (*models.UserStats, error) {
	return s.statsFn(ctx, userID)
}

func noopJobRepo() *jobRepoStub {
	return &jobRepoStub{
		listFn: func(context.Context, uint) ([]models.Job, error) { return nil, nil },
		createFn: func(_ context.Context, userID uint, in models.JobInput) (*models.Job, error) {
			job := &models.Job{ID: 1, UserID: userID}
			in.Apply(job)
			return job, nil
		},
		replaceFn: func(context.Context, uint, []models.JobRow) (models.ReplaceResult, error) {
			return models.ReplaceResult{}, nil
		},
		statsFn: func(context.Context, uint) (*models.UserStats, error) {
			return &models.UserStats{StatusCounts: map[string]int{}}, nil
		},
	}
}
