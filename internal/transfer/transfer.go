// Package transfer moves data between backends. Export snapshots the
// local SQLite tables; Import replays a snapshot into any store that can
// insert raw rows, giving every row a fresh id.
package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jobtracker/internal/models"
	"jobtracker/internal/observability"
	"jobtracker/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Tables lists the exported tables, parents first.
var Tables = []string{"users", "jobs", "documents", "user_profile", "career_goals"}

// Snapshot is the on-disk export format.
type Snapshot struct {
	ExportTimestamp string           `json:"export_timestamp" yaml:"export_timestamp"`
	Tables          map[string]Table `json:"tables" yaml:"tables"`
}

// Table holds every row of one table.
type Table struct {
	Count int              `json:"count" yaml:"count"`
	Data  []map[string]any `json:"data" yaml:"data"`
}

// Format selects the snapshot encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension; JSON is the default.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Export reads every table from db.
func Export(ctx context.Context, db *gorm.DB, now time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		ExportTimestamp: models.Timestamp(now),
		Tables:          make(map[string]Table, len(Tables)),
	}
	for _, name := range Tables {
		var rows []map[string]any
		if err := db.WithContext(ctx).Table(name).Order("id").Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("export %s: %w", name, err)
		}
		for _, row := range rows {
			for k, v := range row {
				if b, ok := v.([]byte); ok {
					row[k] = string(b)
				}
			}
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		snap.Tables[name] = Table{Count: len(rows), Data: rows}
	}
	return snap, nil
}

// Write encodes snap to w.
func Write(w io.Writer, snap *Snapshot, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode yaml snapshot: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("encode json snapshot: %w", err)
		}
		return nil
	}
}

// Read decodes a snapshot from r.
func Read(r io.Reader, format Format) (*Snapshot, error) {
	var snap Snapshot
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&snap)
	default:
		err = json.NewDecoder(r).Decode(&snap)
	}
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Result counts imported and skipped rows per table. UserIDs holds the new
// ids of the users inserted so far, also when Import fails part way.
type Result struct {
	Imported map[string]int
	Skipped  map[string]int
	UserIDs  []uint
}

// Import inserts the snapshot into dst. Users go first; rows of the other
// tables are re-pointed at the new user ids, and rows whose user was not
// imported are skipped. Import stops at the first failed insert.
func Import(ctx context.Context, dst repository.RowImporter, snap *Snapshot) (*Result, error) {
	res := &Result{Imported: map[string]int{}, Skipped: map[string]int{}}
	userIDs := map[uint]uint{}

	for _, row := range snap.Tables["users"].Data {
		oldID, ok := toUint(row["id"])
		if !ok {
			res.Skipped["users"]++
			continue
		}
		newID, err := dst.ImportRow(ctx, "users", row)
		if err != nil {
			return res, fmt.Errorf("import user %d: %w", oldID, err)
		}
		userIDs[oldID] = newID
		res.UserIDs = append(res.UserIDs, newID)
		res.Imported["users"]++
	}

	for _, table := range Tables[1:] {
		for _, row := range snap.Tables[table].Data {
			oldUser, ok := toUint(row["user_id"])
			newUser, mapped := userIDs[oldUser]
			if !ok || !mapped {
				res.Skipped[table]++
				continue
			}
			values := make(map[string]any, len(row))
			for k, v := range row {
				values[k] = v
			}
			values["user_id"] = newUser
			if _, err := dst.ImportRow(ctx, table, values); err != nil {
				return res, fmt.Errorf("import %s row: %w", table, err)
			}
			res.Imported[table]++
		}
	}

	observability.Logger.Info("Snapshot imported",
		slog.Any("imported", res.Imported), slog.Any("skipped", res.Skipped))
	return res, nil
}

// Count reports how many rows per table the destination holds for the
// users in res. After a clean import it equals res.Imported.
func Count(ctx context.Context, store repository.Store, res *Result) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, id := range res.UserIDs {
		if _, err := store.Users().GetByID(ctx, id); err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				continue
			}
			return nil, err
		}
		counts["users"]++

		jobs, err := store.Jobs().ListByUser(ctx, id)
		if err != nil {
			return nil, err
		}
		counts["jobs"] += len(jobs)

		docs, err := store.Documents().ListByUser(ctx, id)
		if err != nil {
			return nil, err
		}
		counts["documents"] += len(docs)

		profile, err := store.Profiles().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			counts["user_profile"]++
		}

		goals, err := store.CareerGoals().ListByUser(ctx, id)
		if err != nil {
			return nil, err
		}
		counts["career_goals"] += len(goals)
	}
	return counts, nil
}

// Clean deletes the users inserted by a failed import. Their rows go with
// them. It returns how many users were removed.
func Clean(ctx context.Context, users repository.UserRepository, res *Result) (int, error) {
	removed := 0
	for _, id := range res.UserIDs {
		n, err := users.Delete(ctx, id)
		if err != nil {
			return removed, fmt.Errorf("remove imported user %d: %w", id, err)
		}
		removed += int(n)
	}
	observability.Logger.Info("Partial import removed", slog.Int("users", removed))
	return removed, nil
}

func toUint(v any) (uint, bool) {
	switch n := v.(type) {
	case int:
		return uint(n), n > 0
	case int64:
		return uint(n), n > 0
	case uint:
		return n, n > 0
	case float64:
		return uint(n), n > 0
	case string:
		u, err := strconv.ParseUint(n, 10, 64)
		return uint(u), err == nil && u > 0
	default:
		return 0, false
	}
}
