package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"jobtracker/internal/models"

	"github.com/supabase-community/postgrest-go"
)

// RESTStore is the Store backed by the hosted PostgREST endpoint. There are
// no transactions over REST, so multi-step writes validate everything they
// can before the first request.
type RESTStore struct {
	base    restBase
	users   *restUserRepository
	jobs    *restJobRepository
	docs    *restDocumentRepository
	profile *restProfileRepository
	goals   *restCareerGoalRepository
}

type restBase struct {
	client *postgrest.Client
	opts   options
	instrument
}

// NewRESTStore connects to the project at baseURL. The API key is sent both
// as the apikey header and as the bearer token.
func NewRESTStore(baseURL, apiKey string, opts ...Option) *RESTStore {
	client := postgrest.NewClient(strings.TrimRight(baseURL, "/")+"/rest/v1", "public", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + apiKey,
	})
	base := restBase{client: client, opts: newOptions(opts), instrument: newInstrument(BackendSupabase)}
	return &RESTStore{
		base:    base,
		users:   &restUserRepository{base},
		jobs:    &restJobRepository{base},
		docs:    &restDocumentRepository{base},
		profile: &restProfileRepository{base},
		goals:   &restCareerGoalRepository{base},
	}
}

func (s *RESTStore) Backend() Backend                  { return BackendSupabase }
func (s *RESTStore) Users() UserRepository             { return s.users }
func (s *RESTStore) Jobs() JobRepository               { return s.jobs }
func (s *RESTStore) Documents() DocumentRepository     { return s.docs }
func (s *RESTStore) Profiles() ProfileRepository       { return s.profile }
func (s *RESTStore) CareerGoals() CareerGoalRepository { return s.goals }

// Ping issues a one-row read against users.
func (s *RESTStore) Ping(ctx context.Context) error {
	_, err := fetch[idRow](ctx, s.base.from("users").Select("id", "", false).Limit(1, ""))
	return classify("store.ping", err)
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (s *RESTStore) Close() error {
	return nil
}

// ImportRow inserts row as-is apart from its id.
func (s *RESTStore) ImportRow(ctx context.Context, table string, row map[string]any) (id uint, err error) {
	const op = "store.import"
	ctx, finish := s.base.start(ctx, op, table)
	defer finish(&err)

	if !isImportable(table) {
		return 0, models.NewValidationError(fmt.Sprintf("unknown table %q", table)).WithOp(op)
	}
	values := make(map[string]any, len(row))
	for k, v := range row {
		if k != "id" {
			values[k] = v
		}
	}

	rows, err := fetch[idRow](ctx, s.base.from(table).Insert(values, false, "", "representation", ""))
	if err != nil {
		return 0, classify(op, err)
	}
	if len(rows) == 0 {
		return 0, models.NewInternalError(fmt.Errorf("insert into %s returned no row", table)).WithOp(op)
	}
	return rows[0].ID, nil
}

func (b restBase) from(table string) *postgrest.QueryBuilder {
	return b.client.From(table)
}

type idRow struct {
	ID uint `json:"id"`
}

// fetch executes a request and decodes the returned rows. A cancelled
// context short-circuits before the request is sent.
func fetch[T any](ctx context.Context, fb *postgrest.FilterBuilder) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := fb.Execute()
	if err != nil {
		return nil, err
	}
	rows := []T{}
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return rows, nil
}

func first[T any](rows []T) *T {
	if len(rows) == 0 {
		return nil
	}
	return &rows[0]
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func idStrings(ids []uint) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idString(id)
	}
	return out
}

var newestFirst = &postgrest.OrderOpts{Ascending: false}
