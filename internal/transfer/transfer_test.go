package transfer

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"jobtracker/internal/database"
	"jobtracker/internal/models"
	"jobtracker/internal/repository"
	"jobtracker/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) (*gorm.DB, *repository.SQLStore) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	require.NoError(t, database.RunMigrations(context.Background(), db))
	store := repository.NewSQLStore(db)
	t.Cleanup(func() { _ = store.Close() })
	return db, store
}

// fill creates two users; only the first owns rows.
func fill(t *testing.T, store repository.Store) {
	t.Helper()
	ctx := context.Background()
	alice := &models.User{Username: "alice", PasswordHash: "hash-a"}
	require.NoError(t, store.Users().Create(ctx, alice))
	require.NoError(t, store.Users().Create(ctx, &models.User{Username: "bob", PasswordHash: "hash-b"}))

	_, err := store.Jobs().Create(ctx, alice.ID, models.JobInput{CompanyName: "Acme", JobTitle: "Engineer", Status: models.StatusApplied})
	require.NoError(t, err)
	_, err = store.Jobs().Create(ctx, alice.ID, models.JobInput{CompanyName: "Globex", JobTitle: "Lead"})
	require.NoError(t, err)
	_, err = store.Documents().Create(ctx, alice.ID, models.DocumentInput{DocumentName: "CV", DocumentType: models.DocumentTypeResume, DocumentContent: "text"})
	require.NoError(t, err)
	_, err = store.Profiles().Upsert(ctx, alice.ID, "CV")
	require.NoError(t, err)
	_, err = store.CareerGoals().Create(ctx, alice.ID, "Grow")
	require.NoError(t, err)
}

func TestExport(t *testing.T) {
	db, store := openDB(t)
	fill(t, store)

	snap, err := Export(context.Background(), db, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10 12:00:00", snap.ExportTimestamp)

	counts := map[string]int{}
	for name, table := range snap.Tables {
		counts[name] = table.Count
		assert.Len(t, table.Data, table.Count)
	}
	assert.Equal(t, map[string]int{"users": 2, "jobs": 2, "documents": 1, "user_profile": 1, "career_goals": 1}, counts)
	assert.Equal(t, "alice", snap.Tables["users"].Data[0]["username"])
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			srcDB, src := openDB(t)
			fill(t, src)

			snap, err := Export(ctx, srcDB, time.Now())
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, snap, format))
			decoded, err := Read(&buf, format)
			require.NoError(t, err)

			// A pre-existing user shifts the ids in the destination.
			_, dst := openDB(t)
			require.NoError(t, dst.Users().Create(ctx, &models.User{Username: "carol", PasswordHash: "x"}))

			res, err := Import(ctx, dst, decoded)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{"users": 2, "jobs": 2, "documents": 1, "user_profile": 1, "career_goals": 1}, res.Imported)

			alice, err := dst.Users().GetByUsername(ctx, "alice")
			require.NoError(t, err)
			require.NotNil(t, alice)
			assert.Equal(t, "hash-a", alice.PasswordHash)

			jobs, err := dst.Jobs().ListByUser(ctx, alice.ID)
			require.NoError(t, err)
			assert.Len(t, jobs, 2)

			goal, err := dst.CareerGoals().Current(ctx, alice.ID)
			require.NoError(t, err)
			require.NotNil(t, goal)
			assert.Equal(t, "Grow", goal.Goals)
		})
	}
}

func TestImport_IntoHostedBackend(t *testing.T) {
	ctx := context.Background()
	srcDB, src := openDB(t)
	fill(t, src)
	snap, err := Export(ctx, srcDB, time.Now())
	require.NoError(t, err)

	srv := testutil.NewPostgREST(t)
	dst := repository.NewRESTStore(srv.URL, "test-key")

	res, err := Import(ctx, dst, snap)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Imported["jobs"])
	assert.Len(t, srv.Rows("users"), 2)
	assert.Len(t, srv.Rows("jobs"), 2)
}

func TestImport_SkipsOrphans(t *testing.T) {
	_, dst := openDB(t)
	snap := &Snapshot{Tables: map[string]Table{
		"users": {Count: 0},
		"jobs": {Count: 1, Data: []map[string]any{
			{"id": 1, "user_id": 99, "company_name": "Acme", "job_title": "Engineer"},
		}},
	}}

	res, err := Import(context.Background(), dst, snap)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped["jobs"])
	assert.Zero(t, res.Imported["jobs"])
}

// brokenSnapshot has two users and a second job row the destination rejects.
func brokenSnapshot() *Snapshot {
	return &Snapshot{Tables: map[string]Table{
		"users": {Count: 2, Data: []map[string]any{
			{"id": 1, "username": "alice", "password_hash": "hash-a", "created_at": "2025-01-01 00:00:00"},
			{"id": 2, "username": "bob", "password_hash": "hash-b", "created_at": "2025-01-01 00:00:00"},
		}},
		"jobs": {Count: 2, Data: []map[string]any{
			{"id": 1, "user_id": 1, "company_name": "Acme", "job_title": "Engineer", "date_added": "2025-01-02 10:00:00"},
			{"id": 2, "user_id": 1, "company_name": "Globex", "job_title": "Lead", "date_added": "2025-01-02 10:00:00", "bogus": "x"},
		}},
	}}
}

func TestImport_PartialFailureCanBeCleaned(t *testing.T) {
	ctx := context.Background()
	_, dst := openDB(t)
	require.NoError(t, dst.Users().Create(ctx, &models.User{Username: "carol", PasswordHash: "x"}))

	res, err := Import(ctx, dst, brokenSnapshot())
	require.Error(t, err)
	assert.Len(t, res.UserIDs, 2)
	assert.Equal(t, 1, res.Imported["jobs"])

	present, err := Count(ctx, dst, res)
	require.NoError(t, err)
	assert.Equal(t, 2, present["users"])
	assert.Equal(t, 1, present["jobs"])

	removed, err := Clean(ctx, dst.Users(), res)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	present, err = Count(ctx, dst, res)
	require.NoError(t, err)
	assert.Zero(t, present["users"])
	assert.Zero(t, present["jobs"])

	alice, err := dst.Users().GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, alice)
	carol, err := dst.Users().GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, carol)
}

func TestCount_MatchesCleanImport(t *testing.T) {
	ctx := context.Background()
	srcDB, src := openDB(t)
	fill(t, src)
	snap, err := Export(ctx, srcDB, time.Now())
	require.NoError(t, err)

	_, dst := openDB(t)
	res, err := Import(ctx, dst, snap)
	require.NoError(t, err)

	present, err := Count(ctx, dst, res)
	require.NoError(t, err)
	assert.Equal(t, res.Imported, present)
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("backup.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("backup.YML"))
	assert.Equal(t, FormatJSON, FormatFor("backup.json"))
	assert.Equal(t, FormatJSON, FormatFor("backup"))
}
