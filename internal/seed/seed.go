// Package seed fills a store with demo data for development. It writes
// through repository.Store, so it works against either backend.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"
	"jobtracker/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the password every seeded user logs in with.
const DefaultPassword = "password123"

// Options configures a seed run.
type Options struct {
	Users       int
	JobsPerUser int
	// Seed makes the generated data reproducible; 0 uses the clock.
	Seed       int64
	BcryptCost int
}

// Result reports what a seed run created.
type Result struct {
	Users []*models.User
	Jobs  int
	Goals int
}

// Factory builds domain inputs with gofakeit and persists them.
type Factory struct {
	store repository.Store
	faker *gofakeit.Faker
	opts  Options
	now   func() time.Time
}

// NewFactory creates a Factory bound to store.
func NewFactory(store repository.Store, opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	return &Factory{store: store, faker: gofakeit.New(seed), opts: opts, now: time.Now}
}

// JobInput returns a plausible job. Jobs past "Not Applied" carry an
// applied date within the last 60 days.
func (f *Factory) JobInput() models.JobInput {
	status := f.faker.RandomString(models.JobStatuses)
	in := models.JobInput{
		CompanyName:    f.faker.Company(),
		JobTitle:       f.faker.JobTitle(),
		JobDescription: f.faker.Paragraph(1, 3, 12, "\n"),
		ApplicationURL: f.faker.URL(),
		Status:         status,
		Sentiment:      f.faker.RandomString(models.Sentiments),
		Notes:          f.faker.Sentence(8),
		Location:       f.faker.City(),
		Salary:         fmt.Sprintf("$%dk", f.faker.Number(60, 220)),
	}
	if status != models.StatusNotApplied {
		daysBack := f.faker.Number(0, 60)
		in.AppliedDate = f.now().UTC().AddDate(0, 0, -daysBack).Format(models.DateLayout)
	}
	return in
}

// CreateUser stores a user with DefaultPassword.
func (f *Factory) CreateUser(ctx context.Context) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), f.opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	email := f.faker.Email()
	user := &models.User{
		Username:     fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 999)),
		PasswordHash: string(hash),
		Email:        &email,
	}
	if err := f.store.Users().Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Run creates opts.Users users, each with opts.JobsPerUser jobs and one
// career goal entry.
func Run(ctx context.Context, store repository.Store, opts Options) (*Result, error) {
	f := NewFactory(store, opts)
	res := &Result{}

	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return res, fmt.Errorf("seed user %d: %w", i+1, err)
		}
		res.Users = append(res.Users, user)

		for j := 0; j < opts.JobsPerUser; j++ {
			if _, err := store.Jobs().Create(ctx, user.ID, f.JobInput()); err != nil {
				return res, fmt.Errorf("seed job for %s: %w", user.Username, err)
			}
			res.Jobs++
		}

		if _, err := store.CareerGoals().Create(ctx, user.ID, f.faker.Sentence(12)); err != nil {
			return res, fmt.Errorf("seed goals for %s: %w", user.Username, err)
		}
		res.Goals++
	}

	observability.Logger.Info("Seed complete",
		slog.Int("users", len(res.Users)), slog.Int("jobs", res.Jobs), slog.Int("goals", res.Goals))
	return res, nil
}
