// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file holds the bulk statements used by the importer:
// conflict-ignoring inserts, code lookups and the reference back-fill.
//
// Every function takes the handle it should run on, so callers pass the
// transaction they opened.
package repo

import (
	"context"
	"maps"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// MaxBindParams returns how many bind parameters one statement may carry on
// db's dialect.
func MaxBindParams(db *gorm.DB) int {
	switch db.Dialector.Name() {
	case "sqlite":
		return 32766
	case "postgres":
		return 65535
	default:
		return 999
	}
}

// ChunkSize bounds rows per statement by both the configured batch size and
// the dialect's parameter limit.
func ChunkSize(db *gorm.DB, batch, paramsPerRow int) int {
	if paramsPerRow < 1 {
		paramsPerRow = 1
	}
	n := MaxBindParams(db) / paramsPerRow
	if batch > 0 && batch < n {
		n = batch
	}
	if n < 1 {
		n = 1
	}
	return n
}

// InsertLogRecords inserts envelopes in chunks, skipping any whose
// (guid, table_name) already exists. It returns the number inserted.
func InsertLogRecords(ctx context.Context, db *gorm.DB, recs []domain.LogRecord, chunk int) (int64, error) {
	if chunk < 1 {
		chunk = len(recs)
	}
	var inserted int64
	for start := 0; start < len(recs); start += chunk {
		batch := recs[start:min(start+chunk, len(recs))]
		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "guid"}, {Name: "table_name"}},
				DoNothing: true,
			}).
			Create(&batch)
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += res.RowsAffected
	}
	return inserted, nil
}

// InsertRows inserts column maps into table in chunks, skipping rows whose
// code already exists. It returns the number inserted. GORM writes keys back
// into the maps it creates from, so each chunk is cloned and rows are left
// untouched.
func InsertRows(ctx context.Context, db *gorm.DB, table string, rows []map[string]any, chunk int) (int64, error) {
	if chunk < 1 {
		chunk = len(rows)
	}
	var inserted int64
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		batch := make([]map[string]any, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, maps.Clone(r))
		}
		res := db.WithContext(ctx).
			Table(table).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "code"}},
				DoNothing: true,
			}).
			Create(batch)
		if res.Error != nil {
			return inserted, res.Error
		}
		inserted += res.RowsAffected
	}
	return inserted, nil
}

// ExistingCodes returns the subset of codes present in table.
func ExistingCodes(ctx context.Context, db *gorm.DB, table string, codes []string, chunk int) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(codes))
	if chunk < 1 {
		chunk = len(codes)
	}
	for start := 0; start < len(codes); start += chunk {
		end := min(start+chunk, len(codes))
		var found []string
		if err := db.WithContext(ctx).
			Table(table).
			Where("code IN ?", codes[start:end]).
			Pluck("code", &found).Error; err != nil {
			return nil, err
		}
		for _, c := range found {
			out[strings.ToLower(c)] = struct{}{}
		}
	}
	return out, nil
}

// ReferenceUpdate carries the resolved reference columns of one row.
type ReferenceUpdate struct {
	Code   string
	Values map[string]string // column -> referenced code
}

// SetReferences writes resolved reference columns with one CASE-based
// UPDATE per chunk. Columns a row does not mention keep their value.
func SetReferences(ctx context.Context, db *gorm.DB, table string, columns []string, updates []ReferenceUpdate, chunk int) (int64, error) {
	if len(updates) == 0 || len(columns) == 0 {
		return 0, nil
	}
	if chunk < 1 {
		chunk = len(updates)
	}
	var affected int64
	for start := 0; start < len(updates); start += chunk {
		batch := updates[start:min(start+chunk, len(updates))]

		codes := make([]string, 0, len(batch))
		for _, u := range batch {
			codes = append(codes, u.Code)
		}
		set := make(map[string]any, len(columns))
		for _, col := range columns {
			var sb strings.Builder
			args := []any{clause.Column{Name: "code"}}
			sb.WriteString("CASE ?")
			for _, u := range batch {
				if v, ok := u.Values[col]; ok {
					sb.WriteString(" WHEN ? THEN ?")
					args = append(args, u.Code, v)
				}
			}
			if len(args) == 1 {
				continue
			}
			sb.WriteString(" ELSE ? END")
			args = append(args, clause.Column{Name: col})
			set[col] = gorm.Expr(sb.String(), args...)
		}
		if len(set) == 0 {
			continue
		}
		res := db.WithContext(ctx).Table(table).Where("code IN ?", codes).Updates(set)
		if res.Error != nil {
			return affected, res.Error
		}
		affected += res.RowsAffected
	}
	return affected, nil
}
