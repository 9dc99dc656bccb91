package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"jobtracker/internal/config"
	"jobtracker/internal/database"
	"jobtracker/internal/observability"
)

// UseHosted decides whether data goes to the hosted REST backend. An
// explicit BACKEND wins; otherwise the hosted backend is used when its
// credentials are configured and the local database file is absent, which
// is how read-only cloud filesystems present themselves.
func UseHosted(cfg *config.Config) bool {
	hosted, _ := explain(cfg)
	return hosted
}

// SelectBackend maps UseHosted to a Backend value.
func SelectBackend(cfg *config.Config) Backend {
	b, _ := Explain(cfg)
	return b
}

// Explain returns the selected backend and a one-line reason.
func Explain(cfg *config.Config) (Backend, string) {
	hosted, reason := explain(cfg)
	if hosted {
		return BackendSupabase, reason
	}
	return BackendSQLite, reason
}

func explain(cfg *config.Config) (bool, string) {
	switch cfg.Backend {
	case config.BackendSupabase:
		return true, "BACKEND=supabase"
	case config.BackendSQLite:
		return false, "BACKEND=sqlite"
	}
	if !cfg.HostedConfigured() {
		return false, "hosted credentials not configured"
	}
	_, err := os.Stat(cfg.SQLitePath)
	if errors.Is(err, fs.ErrNotExist) {
		return true, fmt.Sprintf("hosted credentials set and %s does not exist", cfg.SQLitePath)
	}
	return false, fmt.Sprintf("local database %s exists", cfg.SQLitePath)
}

// Open builds the Store for the selected backend. The local backend is
// migrated to the latest schema before it is returned.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (Store, error) {
	backend := SelectBackend(cfg)
	observability.Logger.Info("Selected data backend", slog.String("backend", string(backend)))

	if backend == BackendSupabase {
		store := NewRESTStore(cfg.SupabaseURL, cfg.SupabaseAPIKey, opts...)
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("hosted backend unreachable: %w", err)
		}
		return store, nil
	}

	db, err := database.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}
	return NewSQLStore(db, opts...), nil
}
