// Package testutil holds test doubles shared across packages.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// PostgREST is an in-memory stand-in for a hosted PostgREST endpoint. It
// understands the subset of the protocol the REST store sends: eq, neq,
// gt, gte, lt, lte, in and is filters, select projection, order and limit,
// and POST, PATCH and DELETE returning the affected rows.
//
// It mirrors the hosted schema's constraints: unique usernames and
// emails, one profile per user, at most one preferred document per user,
// user_id foreign keys and cascading user deletes.
type PostgREST struct {
	*httptest.Server

	mu       sync.Mutex
	tables   map[string]*fakeTable
	requests int
	failNext *fakeError
}

type fakeTable struct {
	nextID float64
	rows   []map[string]any
}

type fakeError struct {
	status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

var fakeTables = []string{"users", "jobs", "documents", "user_profile", "career_goals"}

// NewPostgREST starts a fake server that is closed when the test ends.
func NewPostgREST(t testing.TB) *PostgREST {
	t.Helper()
	p := &PostgREST{tables: map[string]*fakeTable{}}
	for _, name := range fakeTables {
		p.tables[name] = &fakeTable{nextID: 1}
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

// Rows returns a copy of every row in table.
func (p *PostgREST) Rows(table string) []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	tbl, ok := p.tables[table]
	if !ok {
		return nil
	}
	out := make([]map[string]any, len(tbl.rows))
	for i, row := range tbl.rows {
		out[i] = cloneRow(row)
	}
	return out
}

// Requests reports how many requests the server has handled.
func (p *PostgREST) Requests() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests
}

// FailNext makes the next request fail with the given status and error body.
func (p *PostgREST) FailNext(status int, code, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failNext = &fakeError{status: status, Code: code, Message: message}
}

func (p *PostgREST) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++

	if p.failNext != nil {
		fail := p.failNext
		p.failNext = nil
		writeError(w, fail)
		return
	}

	tbl, ok := p.tables[path.Base(r.URL.Path)]
	if !ok {
		writeError(w, &fakeError{status: http.StatusNotFound, Code: "42P01", Message: "relation does not exist"})
		return
	}

	query, err := parseQuery(r)
	if err != nil {
		writeError(w, &fakeError{status: http.StatusBadRequest, Code: "PGRST100", Message: err.Error()})
		return
	}

	var (
		rows []map[string]any
		ferr *fakeError
	)
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		rows = tbl.selectRows(query)
	case http.MethodPost:
		rows, ferr = p.insert(path.Base(r.URL.Path), tbl, r.Body)
	case http.MethodPatch:
		rows, ferr = p.update(path.Base(r.URL.Path), tbl, query, r.Body)
	case http.MethodDelete:
		rows = p.delete(path.Base(r.URL.Path), tbl, query)
	default:
		ferr = &fakeError{status: http.StatusMethodNotAllowed, Code: "PGRST000", Message: "method not allowed"}
	}
	if ferr != nil {
		writeError(w, ferr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(project(rows, query.columns))
}

func writeError(w http.ResponseWriter, e *fakeError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.status)
	_ = json.NewEncoder(w).Encode(e)
}

type filter struct {
	column string
	op     string
	value  string
}

type orderTerm struct {
	column string
	desc   bool
}

type fakeQuery struct {
	columns []string
	filters []filter
	order   []orderTerm
	limit   int
}

func parseQuery(r *http.Request) (fakeQuery, error) {
	q := fakeQuery{limit: -1}
	for key, values := range r.URL.Query() {
		for _, value := range values {
			switch key {
			case "select":
				if value != "*" && value != "" {
					q.columns = strings.Split(value, ",")
				}
			case "order":
				for _, term := range strings.Split(value, ",") {
					parts := strings.Split(term, ".")
					q.order = append(q.order, orderTerm{column: parts[0], desc: len(parts) > 1 && parts[1] == "desc"})
				}
			case "limit":
				n, err := strconv.Atoi(value)
				if err != nil {
					return q, fmt.Errorf("invalid limit %q", value)
				}
				q.limit = n
			case "offset", "columns", "on_conflict":
			default:
				op, arg, ok := strings.Cut(value, ".")
				if !ok {
					return q, fmt.Errorf("invalid filter %s=%s", key, value)
				}
				q.filters = append(q.filters, filter{column: key, op: op, value: arg})
			}
		}
	}
	return q, nil
}

func (t *fakeTable) matching(q fakeQuery) []int {
	var idx []int
	for i, row := range t.rows {
		if matches(row, q.filters) {
			idx = append(idx, i)
		}
	}
	return idx
}

func (t *fakeTable) selectRows(q fakeQuery) []map[string]any {
	var rows []map[string]any
	for _, i := range t.matching(q) {
		rows = append(rows, cloneRow(t.rows[i]))
	}
	if len(q.order) > 0 {
		sort.SliceStable(rows, func(a, b int) bool {
			for _, term := range q.order {
				c := compare(rows[a][term.column], rows[b][term.column])
				if c == 0 {
					continue
				}
				if term.desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.limit >= 0 && len(rows) > q.limit {
		rows = rows[:q.limit]
	}
	return rows
}

func decodeBody(body io.Reader) ([]map[string]any, *fakeError) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &fakeError{status: http.StatusBadRequest, Code: "PGRST102", Message: err.Error()}
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) > 0 && data[0] == '[' {
		var rows []map[string]any
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, &fakeError{status: http.StatusBadRequest, Code: "PGRST102", Message: err.Error()}
		}
		return rows, nil
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, &fakeError{status: http.StatusBadRequest, Code: "PGRST102", Message: err.Error()}
	}
	return []map[string]any{row}, nil
}

func (p *PostgREST) insert(name string, tbl *fakeTable, body io.Reader) ([]map[string]any, *fakeError) {
	rows, ferr := decodeBody(body)
	if ferr != nil {
		return nil, ferr
	}

	candidate := append([]map[string]any{}, tbl.rows...)
	nextID := tbl.nextID
	var inserted []map[string]any
	for _, in := range rows {
		row := cloneRow(in)
		if _, ok := row["id"]; !ok || row["id"] == nil {
			row["id"] = nextID
			nextID++
		} else if id, ok := row["id"].(float64); ok && id >= nextID {
			nextID = id + 1
		}
		candidate = append(candidate, row)
		inserted = append(inserted, row)
	}
	if ferr := p.check(name, candidate); ferr != nil {
		return nil, ferr
	}
	tbl.rows = candidate
	tbl.nextID = nextID
	return inserted, nil
}

func (p *PostgREST) update(name string, tbl *fakeTable, q fakeQuery, body io.Reader) ([]map[string]any, *fakeError) {
	patches, ferr := decodeBody(body)
	if ferr != nil {
		return nil, ferr
	}
	patch := patches[0]

	candidate := make([]map[string]any, len(tbl.rows))
	copy(candidate, tbl.rows)
	var updated []map[string]any
	for _, i := range tbl.matching(q) {
		row := cloneRow(tbl.rows[i])
		for k, v := range patch {
			row[k] = v
		}
		candidate[i] = row
		updated = append(updated, row)
	}
	if ferr := p.check(name, candidate); ferr != nil {
		return nil, ferr
	}
	tbl.rows = candidate
	return updated, nil
}

func (p *PostgREST) delete(name string, tbl *fakeTable, q fakeQuery) []map[string]any {
	var kept, deleted []map[string]any
	for _, row := range tbl.rows {
		if matches(row, q.filters) {
			deleted = append(deleted, row)
		} else {
			kept = append(kept, row)
		}
	}
	tbl.rows = kept

	if name == "users" {
		gone := map[string]bool{}
		for _, row := range deleted {
			gone[format(row["id"])] = true
		}
		for _, child := range fakeTables[1:] {
			t := p.tables[child]
			var rest []map[string]any
			for _, row := range t.rows {
				if !gone[format(row["user_id"])] {
					rest = append(rest, row)
				}
			}
			t.rows = rest
		}
	}
	return deleted
}

// check enforces the hosted schema's constraints on a prospective table state.
func (p *PostgREST) check(name string, rows []map[string]any) *fakeError {
	unique := func(label string, key func(map[string]any) (string, bool)) *fakeError {
		seen := map[string]bool{}
		for _, row := range rows {
			k, ok := key(row)
			if !ok {
				continue
			}
			if seen[k] {
				return &fakeError{
					status:  http.StatusConflict,
					Code:    "23505",
					Message: fmt.Sprintf("duplicate key value violates unique constraint %q", label),
				}
			}
			seen[k] = true
		}
		return nil
	}
	column := func(col string) func(map[string]any) (string, bool) {
		return func(row map[string]any) (string, bool) {
			v, ok := row[col]
			return format(v), ok && v != nil
		}
	}

	switch name {
	case "users":
		if e := unique("users_username_key", column("username")); e != nil {
			return e
		}
		return unique("users_email_key", column("email"))
	case "user_profile":
		if e := unique("user_profile_user_id_key", column("user_id")); e != nil {
			return e
		}
	case "documents":
		if e := unique("uniq_documents_preferred_resume", func(row map[string]any) (string, bool) {
			return format(row["user_id"]), format(row["preferred_resume"]) == "1"
		}); e != nil {
			return e
		}
	}

	users := map[string]bool{}
	for _, row := range p.tables["users"].rows {
		users[format(row["id"])] = true
	}
	for _, row := range rows {
		if !users[format(row["user_id"])] {
			return &fakeError{
				status:  http.StatusConflict,
				Code:    "23503",
				Message: fmt.Sprintf("insert or update on table %q violates foreign key constraint", name),
			}
		}
	}
	return nil
}

func matches(row map[string]any, filters []filter) bool {
	for _, f := range filters {
		v := row[f.column]
		switch f.op {
		case "eq":
			if v == nil || format(v) != f.value {
				return false
			}
		case "neq":
			if v == nil || format(v) == f.value {
				return false
			}
		case "gt", "gte", "lt", "lte":
			if v == nil {
				return false
			}
			c := compare(v, f.value)
			if (f.op == "gt" && c <= 0) || (f.op == "gte" && c < 0) ||
				(f.op == "lt" && c >= 0) || (f.op == "lte" && c > 0) {
				return false
			}
		case "in":
			list := strings.TrimSuffix(strings.TrimPrefix(f.value, "("), ")")
			found := false
			for _, item := range strings.Split(list, ",") {
				if v != nil && format(v) == strings.Trim(item, `"`) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case "is":
			if f.value == "null" && v != nil {
				return false
			}
			if f.value != "null" && format(v) != f.value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// compare orders numbers numerically and everything else as text. Nulls
// sort last in ascending order.
func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1
		default:
			return -1
		}
	}
	as, bs := format(a), format(b)
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(as, bs)
}

func project(rows []map[string]any, columns []string) []map[string]any {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if len(columns) == 0 {
			out = append(out, row)
			continue
		}
		picked := make(map[string]any, len(columns))
		for _, col := range columns {
			picked[col] = row[col]
		}
		out = append(out, picked)
	}
	return out
}

func cloneRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
