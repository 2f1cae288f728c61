package importer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// omit removes a key from a generated payload.
type omitted struct{}

var omit = omitted{}

func sample(ft FieldType) any {
	switch ft {
	case TypeString:
		return "x"
	case TypeInteger:
		return json.Number("1")
	case TypeBoolean:
		return true
	case TypeFloat:
		return json.Number("51.5")
	case TypeDate:
		return "2024-03-01"
	case TypeDateTime:
		return "2024-03-01T10:00:00Z"
	case TypeUUID:
		return uuid.NewString()
	}
	return nil
}

// payload builds a meta object with a valid value for every declared field,
// then applies set.
func payload(t *testing.T, table domain.TableType, set map[string]any) map[string]any {
	t.Helper()
	s, ok := DefaultRegistry().Lookup(table)
	if !ok {
		t.Fatalf("no schema for %q", table)
	}
	p := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		p[f.External] = sample(f.Type)
	}
	for k, v := range set {
		if v == omit {
			delete(p, k)
			continue
		}
		p[k] = v
	}
	return p
}

// rawRecord wraps meta in a log record envelope.
func rawRecord(table string, meta any) Raw {
	return Raw{
		"user_id":   json.Number("125880"),
		"guid":      uuid.NewString(),
		"table":     table,
		"meta":      meta,
		"platform":  json.Number("9"),
		"_modified": json.Number("1616317613"),
	}
}

func rec(t *testing.T, table domain.TableType, set map[string]any) Raw {
	t.Helper()
	return rawRecord(string(table), payload(t, table, set))
}

func newImportDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("importer_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func count(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Table(table).Count(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
