// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries over the logbook used
// by the stats endpoint.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// LogbookStats summarises what is stored.
type LogbookStats struct {
	// Envelopes counts log records per discriminator.
	Envelopes map[domain.TableType]int64 `json:"envelopes"`
	// Entities counts rows per storage table.
	Entities map[string]int64 `json:"entities"`
	// TotalEnvelopes is the sum of Envelopes.
	TotalEnvelopes int64 `json:"total_envelopes"`
	// LastModified is the greatest envelope modification time, nil when empty.
	LastModified *time.Time `json:"last_modified,omitempty"`
}

type tabler interface{ TableName() string }

// EnvelopeCounts returns the number of log records per table discriminator.
func EnvelopeCounts(ctx context.Context, db *gorm.DB) (map[domain.TableType]int64, error) {
	var rows []struct {
		Tbl domain.TableType
		N   int64
	}
	err := db.WithContext(ctx).
		Model(&domain.LogRecord{}).
		Select("table_name AS tbl, COUNT(*) AS n").
		Group("table_name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[domain.TableType]int64, len(rows))
	for _, r := range rows {
		out[r.Tbl] = r.N
	}
	return out, nil
}

// EntityCounts returns the row count of every entity table.
func EntityCounts(ctx context.Context, db *gorm.DB) (map[string]int64, error) {
	out := make(map[string]int64)
	for _, m := range domain.Models() {
		switch m.(type) {
		case *domain.LogRecord, *domain.ImportRun:
			continue
		}
		t, ok := m.(tabler)
		if !ok {
			continue
		}
		var n int64
		if err := db.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, err
		}
		out[t.TableName()] = n
	}
	return out, nil
}

// LatestModified returns the greatest envelope modification time, or nil
// when no envelopes exist.
func LatestModified(ctx context.Context, db *gorm.DB) (*time.Time, error) {
	// Order+Limit instead of MAX(): SQLite returns MAX() of a datetime as TEXT.
	var rows []struct {
		Modified time.Time
	}
	err := db.WithContext(ctx).
		Model(&domain.LogRecord{}).
		Select("modified").
		Order("modified DESC").
		Limit(1).
		Scan(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	ts := rows[0].Modified.UTC()
	return &ts, nil
}

// Stats gathers LogbookStats.
func Stats(ctx context.Context, db *gorm.DB) (*LogbookStats, error) {
	env, err := EnvelopeCounts(ctx, db)
	if err != nil {
		return nil, err
	}
	ent, err := EntityCounts(ctx, db)
	if err != nil {
		return nil, err
	}
	last, err := LatestModified(ctx, db)
	if err != nil {
		return nil, err
	}
	st := &LogbookStats{Envelopes: env, Entities: ent, LastModified: last}
	for _, n := range env {
		st.TotalEnvelopes += n
	}
	return st, nil
}

// ImportRunsStats returns aggregate metadata for a user's import runs: the
// total number of rows and the latest CreatedAt, nil when there are none.
func ImportRunsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ImportRun{}).Where("user_id = ?", userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
