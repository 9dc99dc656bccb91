// Package repository implements the data access layer for the application.
//
// Every operation takes the acting user's id explicitly and scopes its
// statement by it. Updates and deletes against rows owned by someone else
// affect zero rows instead of failing, so callers check the returned count.
package repository

import (
	"context"
	"time"

	"jobtracker/internal/models"
)

// Backend identifies the store implementation behind a Store.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendSupabase Backend = "supabase"
)

// UserRepository manages accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByUsername returns nil, nil when no user has that name.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id uint, hash string) (int64, error)
	// Delete removes the user and every row it owns.
	Delete(ctx context.Context, id uint) (int64, error)
}

// JobRepository manages tracked applications.
type JobRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Job, error)
	// GetByID returns nil, nil when the job does not exist or belongs to someone else.
	GetByID(ctx context.Context, id, userID uint) (*models.Job, error)
	Create(ctx context.Context, userID uint, in models.JobInput) (*models.Job, error)
	Update(ctx context.Context, id, userID uint, in models.JobInput) (int64, error)
	Delete(ctx context.Context, id, userID uint) (int64, error)
	// ReplaceAll applies an edited grid: jobs missing from rows are deleted,
	// rows with an id are updated and rows without one are inserted.
	ReplaceAll(ctx context.Context, userID uint, rows []models.JobRow) (models.ReplaceResult, error)
	Stats(ctx context.Context, userID uint) (*models.UserStats, error)
}

// DocumentRepository manages uploaded documents and the preferred resume.
type DocumentRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Document, error)
	ListByType(ctx context.Context, userID uint, docType string) ([]models.Document, error)
	GetByID(ctx context.Context, id, userID uint) (*models.Document, error)
	// Create always stores the document as not preferred.
	Create(ctx context.Context, userID uint, in models.DocumentInput) (*models.Document, error)
	Delete(ctx context.Context, id, userID uint) (int64, error)
	// SavePreferences applies a preferred-resume batch and returns how many
	// rows were written. A batch with more than one preferred row is rejected
	// without writing anything.
	SavePreferences(ctx context.Context, userID uint, batch []models.DocumentPreference) (int, error)
	GetPreferredResume(ctx context.Context, userID uint) (*models.Document, error)
}

// ProfileRepository manages the one-per-user profile row.
type ProfileRepository interface {
	Get(ctx context.Context, userID uint) (*models.UserProfile, error)
	Upsert(ctx context.Context, userID uint, selectedResume string) (*models.UserProfile, error)
}

// CareerGoalRepository manages the append-only goals history.
type CareerGoalRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.CareerGoal, error)
	Create(ctx context.Context, userID uint, goals string) (*models.CareerGoal, error)
	Update(ctx context.Context, id, userID uint, goals string) (int64, error)
	Delete(ctx context.Context, id, userID uint) (int64, error)
	// Current returns the latest entry, or nil, nil when there is none.
	Current(ctx context.Context, userID uint) (*models.CareerGoal, error)
}

// Store is the data layer as seen by services. It is built once at startup.
type Store interface {
	Backend() Backend
	Users() UserRepository
	Jobs() JobRepository
	Documents() DocumentRepository
	Profiles() ProfileRepository
	CareerGoals() CareerGoalRepository
	Ping(ctx context.Context) error
	Close() error
}

// RowImporter inserts a raw row keeping caller-provided timestamps. It is
// used to move data between backends and returns the new row id.
type RowImporter interface {
	ImportRow(ctx context.Context, table string, row map[string]any) (uint, error)
}

// Clock supplies the time used for generated timestamps.
type Clock func() time.Time

type options struct {
	clock Clock
}

// Option configures a store.
type Option func(*options)

// WithClock overrides the clock used for generated timestamps.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func newOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) now() string {
	return models.Timestamp(o.clock())
}

// recentCutoff is the first day counted as recent: seven days before now.
func (o options) recentCutoff() string {
	return o.clock().UTC().AddDate(0, 0, -7).Format(models.DateLayout)
}

// importable lists the tables ImportRow accepts, in dependency order.
var importable = []string{"users", "jobs", "documents", "user_profile", "career_goals"}

func isImportable(table string) bool {
	return models.Contains(importable, table)
}
