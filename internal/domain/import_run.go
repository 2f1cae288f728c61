package domain

import "time"

// TableCounts summarises what an import did to one table.
type TableCounts struct {
	Received int64 `json:"received"`
	Inserted int64 `json:"inserted"`
	Ignored  int64 `json:"ignored"`
	Resolved int64 `json:"resolved,omitempty"`
	Dangling int64 `json:"dangling,omitempty"`
}

// ImportRun records a committed import, keyed optionally by (user_id, key) so
// that a retried upload carrying the same Idempotency-Key replays the stored
// summary instead of running again. Key is NULL for uploads without a key.
type ImportRun struct {
	ID               string                    `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID           string                    `json:"user_id"            gorm:"type:varchar(64);not null;uniqueIndex:ux_import_run_user_key,priority:1;index:idx_import_run_user_created,priority:1"`
	Key              *string                   `json:"-"                  gorm:"type:varchar(200);uniqueIndex:ux_import_run_user_key,priority:2"`
	FileName         string                    `json:"file_name"          gorm:"type:varchar(255);not null"`
	Records          int64                     `json:"records"            gorm:"not null"`
	EnvelopesAdded   int64                     `json:"envelopes_inserted" gorm:"not null"`
	EnvelopesIgnored int64                     `json:"envelopes_ignored"  gorm:"not null"`
	Tables           map[TableType]TableCounts `json:"tables"             gorm:"type:text;serializer:json"`
	DurationMS       int64                     `json:"duration_ms"        gorm:"not null"`
	CreatedAt        time.Time                 `json:"created_at"         gorm:"not null;autoCreateTime;index:idx_import_run_user_created,priority:2"`
	ExpiresAt        time.Time                 `json:"-"                  gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (ImportRun) TableName() string { return "import_runs" }
