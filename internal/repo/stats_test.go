package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", t.Name(), uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestStats_Error_NoTables(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := Stats(context.Background(), db); err == nil {
		t.Fatalf("expected error due to missing tables")
	}
}

func TestStats_Empty(t *testing.T) {
	db := newTestDB(t, domain.Models()...)
	st, err := Stats(context.Background(), db)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalEnvelopes != 0 || len(st.Envelopes) != 0 || st.LastModified != nil {
		t.Fatalf("expected empty stats, got %+v", st)
	}
	if n, ok := st.Entities["flights"]; !ok || n != 0 {
		t.Fatalf("entities should list every table with a zero count: %v", st.Entities)
	}
	if _, ok := st.Entities["import_runs"]; ok {
		t.Fatalf("import runs are not logbook entities")
	}
	if len(st.Entities) != 10 {
		t.Fatalf("entities = %d tables; want 10", len(st.Entities))
	}
}

func TestStats_CountsAndLatest(t *testing.T) {
	db := newTestDB(t, domain.Models()...)

	t1 := time.Date(2021, 3, 21, 9, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC) // latest
	recs := []domain.LogRecord{
		{GUID: "g1", Table: domain.TablePilot, Modified: t1},
		{GUID: "g2", Table: domain.TablePilot, Modified: t2},
		{GUID: "g1", Table: domain.TableAircraft, Modified: t1},
	}
	if err := db.Create(&recs).Error; err != nil {
		t.Fatalf("seed envelopes: %v", err)
	}
	if err := db.Create(&domain.Pilot{Code: uuid.NewString(), RecordModified: t1}).Error; err != nil {
		t.Fatalf("seed pilot: %v", err)
	}

	st, err := Stats(context.Background(), db)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalEnvelopes != 3 || st.Envelopes[domain.TablePilot] != 2 || st.Envelopes[domain.TableAircraft] != 1 {
		t.Fatalf("envelopes = %v (total %d)", st.Envelopes, st.TotalEnvelopes)
	}
	if st.Entities["pilots"] != 1 || st.Entities["aircraft"] != 0 {
		t.Fatalf("entities = %v", st.Entities)
	}
	if st.LastModified == nil || !st.LastModified.Equal(t2) {
		t.Fatalf("last modified = %v; want %v", st.LastModified, t2)
	}
}

func TestImportRunsStats(t *testing.T) {
	db := newTestDB(t, &domain.ImportRun{})
	ctx := context.Background()

	count, maxAt, err := ImportRunsStats(ctx, db, "u1")
	if err != nil || count != 0 || maxAt != nil {
		t.Fatalf("expected (0, nil, nil), got (%d, %v, %v)", count, maxAt, err)
	}

	t1 := time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC) // max for u1
	t3 := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)   // other user
	for _, r := range []*domain.ImportRun{
		{UserID: "u1", CreatedAt: t1},
		{UserID: "u1", CreatedAt: t2},
		{UserID: "u2", CreatedAt: t3},
	} {
		if err := CreateImportRun(ctx, db, r, time.Hour); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, maxAt, err = ImportRunsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ImportRunsStats: %v", err)
	}
	if count != 2 || maxAt == nil || !maxAt.Equal(t2) {
		t.Fatalf("expected (2, %v), got (%d, %v)", t2, count, maxAt)
	}
}
