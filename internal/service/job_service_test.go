package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobtracker/internal/cache"
	"jobtracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobService_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	svc := NewJobService(store.Jobs(), 0)

	_, err := svc.Create(ctx, alice.ID, models.JobInput{JobTitle: "Engineer"})
	assert.True(t, models.IsCode(err, models.CodeValidation))

	job, err := svc.Create(ctx, alice.ID, models.JobInput{CompanyName: "Acme", JobTitle: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusNotApplied, job.Status)

	got, err := svc.Get(ctx, job.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.CompanyName)

	_, err = svc.Get(ctx, job.ID, bob.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	err = svc.Update(ctx, job.ID, bob.ID, models.JobInput{CompanyName: "Evil", JobTitle: "Hijack"})
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	require.NoError(t, svc.Update(ctx, job.ID, alice.ID, models.JobInput{CompanyName: "Acme", JobTitle: "Lead", Status: models.StatusApplied}))
	got, err = svc.Get(ctx, job.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lead", got.JobTitle)

	err = svc.Delete(ctx, job.ID, bob.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))
	require.NoError(t, svc.Delete(ctx, job.ID, alice.ID))

	jobs, err := svc.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobService_SaveGridValidatesEveryRowFirst(t *testing.T) {
	repo := noopJobRepo()
	called := false
	repo.replaceFn = func(context.Context, uint, []models.JobRow) (models.ReplaceResult, error) {
		called = true
		return models.ReplaceResult{}, nil
	}
	svc := NewJobService(repo, 0)

	rows := []models.JobRow{
		{JobInput: models.JobInput{CompanyName: "Acme", JobTitle: "Engineer"}},
		{JobInput: models.JobInput{CompanyName: "Globex"}},
	}
	_, err := svc.SaveGrid(context.Background(), 1, rows)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeValidation))
	assert.Contains(t, err.Error(), "row 2: JobTitle is required")
	assert.False(t, called)
}

func TestJobService_SaveGrid(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	alice := newTestUser(t, store, "alice")
	svc := NewJobService(store.Jobs(), 0)

	keep, err := svc.Create(ctx, alice.ID, models.JobInput{CompanyName: "Acme", JobTitle: "Engineer"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice.ID, models.JobInput{CompanyName: "Gone", JobTitle: "Engineer"})
	require.NoError(t, err)

	result, err := svc.SaveGrid(ctx, alice.ID, []models.JobRow{
		{ID: keep.ID, JobInput: models.JobInput{CompanyName: "Acme", JobTitle: "Staff Engineer"}},
		{JobInput: models.JobInput{CompanyName: "Initech", JobTitle: "Engineer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReplaceResult{Inserted: 1, Updated: 1, Deleted: 1}, result)
}

func TestJobService_StatsCachedAndInvalidated(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	calls := 0
	repo := noopJobRepo()
	repo.statsFn = func(context.Context, uint) (*models.UserStats, error) {
		calls++
		return &models.UserStats{TotalApplications: 3, StatusCounts: map[string]int{models.StatusApplied: 3}}, nil
	}
	svc := NewJobService(repo, time.Minute)

	for i := 0; i < 2; i++ {
		stats, err := svc.Stats(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalApplications)
		assert.Equal(t, 3, stats.StatusCounts[models.StatusApplied])
	}
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists(cache.StatsKey(7)))

	_, err := svc.Create(ctx, 7, models.JobInput{CompanyName: "Acme", JobTitle: "Engineer"})
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.StatsKey(7)))

	_, err = svc.Stats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestJobService_StatsErrorPropagates(t *testing.T) {
	repo := noopJobRepo()
	boom := models.NewBackendError(errors.New("connection refused"))
	repo.statsFn = func(context.Context, uint) (*models.UserStats, error) { return nil, boom }
	svc := NewJobService(repo, time.Minute)

	_, err := svc.Stats(context.Background(), 1)
	assert.True(t, models.IsCode(err, models.CodeBackendUnavailable))
}

func TestJobService_Dashboard(t *testing.T) {
	repo := noopJobRepo()
	repo.listFn = func(context.Context, uint) ([]models.Job, error) {
		return []models.Job{
			{ID: 1, CompanyName: "Acme", JobTitle: "Engineer", Status: models.StatusInterviewing, DateAdded: "2026-03-09 10:00:00"},
		}, nil
	}
	svc := NewJobService(repo, 0).WithClock(func() time.Time { return fixedNow })

	dash, err := svc.Dashboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, dash.Metrics.TotalApplications)
	assert.Equal(t, 1, dash.Metrics.InterviewCount)
	assert.Equal(t, models.StatusInterviewing, dash.Metrics.MostCommonStatus)
}
