package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"jobtracker/internal/config"
	"jobtracker/internal/models"
	"jobtracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseHosted(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "job_tracker.db")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))
	missing := filepath.Join(dir, "absent.db")

	tests := []struct {
		name string
		cfg  config.Config
		want bool
	}{
		{
			name: "explicit supabase",
			cfg:  config.Config{Backend: config.BackendSupabase, SQLitePath: existing},
			want: true,
		},
		{
			name: "explicit sqlite wins over credentials",
			cfg:  config.Config{Backend: config.BackendSQLite, SQLitePath: missing, SupabaseURL: "https://x.supabase.co", SupabaseAPIKey: "k"},
			want: false,
		},
		{
			name: "auto with credentials and no local file",
			cfg:  config.Config{Backend: config.BackendAuto, SQLitePath: missing, SupabaseURL: "https://x.supabase.co", SupabaseAPIKey: "k"},
			want: true,
		},
		{
			name: "auto with credentials and local file",
			cfg:  config.Config{Backend: config.BackendAuto, SQLitePath: existing, SupabaseURL: "https://x.supabase.co", SupabaseAPIKey: "k"},
			want: false,
		},
		{
			name: "auto without credentials",
			cfg:  config.Config{Backend: config.BackendAuto, SQLitePath: missing},
			want: false,
		},
		{
			name: "auto with partial credentials",
			cfg:  config.Config{Backend: config.BackendAuto, SQLitePath: missing, SupabaseURL: "https://x.supabase.co"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UseHosted(&tt.cfg))
			want := BackendSQLite
			if tt.want {
				want = BackendSupabase
			}
			assert.Equal(t, want, SelectBackend(&tt.cfg))
		})
	}
}

func TestExplain(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.db")

	b, reason := Explain(&config.Config{Backend: config.BackendSQLite})
	assert.Equal(t, BackendSQLite, b)
	assert.Equal(t, "BACKEND=sqlite", reason)

	b, reason = Explain(&config.Config{Backend: config.BackendAuto, SQLitePath: missing})
	assert.Equal(t, BackendSQLite, b)
	assert.Equal(t, "hosted credentials not configured", reason)

	b, reason = Explain(&config.Config{Backend: config.BackendAuto, SQLitePath: missing, SupabaseURL: "https://x.supabase.co", SupabaseAPIKey: "k"})
	assert.Equal(t, BackendSupabase, b)
	assert.Contains(t, reason, "does not exist")
}

func TestOpen_LocalMigratesSchema(t *testing.T) {
	cfg := &config.Config{Backend: config.BackendSQLite, SQLitePath: filepath.Join(t.TempDir(), "data", "jobs.db")}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, BackendSQLite, store.Backend())
	jobs, err := store.Jobs().ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestOpen_Hosted(t *testing.T) {
	srv := testutil.NewPostgREST(t)
	cfg := &config.Config{Backend: config.BackendSupabase, SupabaseURL: srv.URL, SupabaseAPIKey: "k"}

	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, BackendSupabase, store.Backend())
	assert.Equal(t, 1, srv.Requests())
}

func TestOpen_HostedUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := &config.Config{Backend: config.BackendSupabase, SupabaseURL: url, SupabaseAPIKey: "k"}
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, models.IsCode(err, models.CodeBackendUnavailable), "got %v", err)
}

func TestRESTStore_SendsAPIKey(t *testing.T) {
	var apikey, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apikey = r.Header.Get("apikey")
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL+"/", "secret-key")
	require.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, "secret-key", apikey)
	assert.Equal(t, "Bearer secret-key", auth)
}

func TestRESTStore_MapsServerErrors(t *testing.T) {
	srv := testutil.NewPostgREST(t)
	store := NewRESTStore(srv.URL, "k")
	ctx := context.Background()

	srv.FailNext(http.StatusConflict, "23505", "duplicate key value violates unique constraint")
	_, err := store.Jobs().Create(ctx, 1, models.JobInput{CompanyName: "Acme", JobTitle: "Dev"})
	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)

	// No user 1 exists, so the foreign key rejects the insert.
	_, err = store.Jobs().Create(ctx, 1, models.JobInput{CompanyName: "Acme", JobTitle: "Dev"})
	assert.True(t, models.IsCode(err, models.CodeConstraint), "got %v", err)
}

func TestRESTStore_CancelledContext(t *testing.T) {
	srv := testutil.NewPostgREST(t)
	store := NewRESTStore(srv.URL, "k")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Jobs().ListByUser(ctx, 1)
	assert.True(t, models.IsCode(err, models.CodeBackendUnavailable), "got %v", err)
	assert.Zero(t, srv.Requests())
}
