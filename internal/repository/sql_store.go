package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"jobtracker/internal/database"
	"jobtracker/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore is the Store backed by a gorm connection (the local SQLite file,
// or Postgres when pointed at the hosted database directly).
type SQLStore struct {
	db      *gorm.DB
	backend Backend
	users   *sqlUserRepository
	jobs    *sqlJobRepository
	docs    *sqlDocumentRepository
	profile *sqlProfileRepository
	goals   *sqlCareerGoalRepository
}

// sqlBase is shared by the per-entity SQL repositories.
type sqlBase struct {
	db   *gorm.DB
	opts options
	instrument
}

func newSQLBase(db *gorm.DB, opts []Option) sqlBase {
	backend := BackendSQLite
	if database.DialectOf(db) == database.DialectPostgres {
		backend = BackendPostgres
	}
	return sqlBase{db: db, opts: newOptions(opts), instrument: newInstrument(backend)}
}

// NewSQLStore wraps an open, migrated connection.
func NewSQLStore(db *gorm.DB, opts ...Option) *SQLStore {
	base := newSQLBase(db, opts)
	return &SQLStore{
		db:      db,
		backend: Backend(base.system),
		users:   &sqlUserRepository{base},
		jobs:    &sqlJobRepository{base},
		docs:    &sqlDocumentRepository{base},
		profile: &sqlProfileRepository{base},
		goals:   &sqlCareerGoalRepository{base},
	}
}

// NewUserRepository returns the SQL user repository for db.
func NewUserRepository(db *gorm.DB, opts ...Option) UserRepository {
	return &sqlUserRepository{newSQLBase(db, opts)}
}

// NewJobRepository returns the SQL job repository for db.
func NewJobRepository(db *gorm.DB, opts ...Option) JobRepository {
	return &sqlJobRepository{newSQLBase(db, opts)}
}

// NewDocumentRepository returns the SQL document repository for db.
func NewDocumentRepository(db *gorm.DB, opts ...Option) DocumentRepository {
	return &sqlDocumentRepository{newSQLBase(db, opts)}
}

func (s *SQLStore) Backend() Backend                  { return s.backend }
func (s *SQLStore) Users() UserRepository             { return s.users }
func (s *SQLStore) Jobs() JobRepository               { return s.jobs }
func (s *SQLStore) Documents() DocumentRepository     { return s.docs }
func (s *SQLStore) Profiles() ProfileRepository       { return s.profile }
func (s *SQLStore) CareerGoals() CareerGoalRepository { return s.goals }

// DB exposes the underlying connection for migrations and exports.
func (s *SQLStore) DB() *gorm.DB {
	return s.db
}

// Ping checks that the database answers.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return classify("store.ping", err)
	}
	return classify("store.ping", sqlDB.PingContext(ctx))
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return database.Close(s.db)
}

// ImportRow inserts row as-is apart from its id.
func (s *SQLStore) ImportRow(ctx context.Context, table string, row map[string]any) (id uint, err error) {
	const op = "store.import"
	ctx, finish := s.users.start(ctx, op, table)
	defer finish(&err)

	if !isImportable(table) {
		return 0, models.NewValidationError(fmt.Sprintf("unknown table %q", table)).WithOp(op)
	}

	cols := make([]string, 0, len(row))
	for k := range row {
		if k != "id" {
			cols = append(cols, k)
		}
	}
	if len(cols) == 0 {
		return 0, models.NewValidationError("empty row").WithOp(op)
	}
	sort.Strings(cols)

	// SQLite and Postgres both hand back the new id through RETURNING.
	vars := make([]any, 0, 2*len(cols)+2)
	vars = append(vars, clause.Table{Name: table})
	for _, c := range cols {
		vars = append(vars, clause.Column{Name: c})
	}
	for _, c := range cols {
		vars = append(vars, row[c])
	}
	vars = append(vars, clause.Column{Name: "id"})

	params := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	query := "INSERT INTO ? (" + params + ") VALUES (" + params + ") RETURNING ?"
	err = s.db.WithContext(ctx).Raw(query, vars...).Scan(&id).Error
	if err != nil {
		return 0, classify(op, err)
	}
	return id, nil
}
