package importer

import (
	"context"
	"errors"
	"iter"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
	"github.com/tbourn/go-pilotlog-backend/internal/repo"
)

// DefaultBatchSize caps the rows written by a single INSERT.
const DefaultBatchSize = 2000

// envelopeParams is the number of bind parameters per envelope row.
const envelopeParams = 5

// Result summarises a committed batch.
type Result struct {
	Records           int                                     `json:"records"`
	EnvelopesInserted int64                                   `json:"envelopes_inserted"`
	EnvelopesIgnored  int64                                   `json:"envelopes_ignored"`
	Tables            map[domain.TableType]domain.TableCounts `json:"tables"`
}

// Saver persists validated records.
type Saver struct {
	DB        *gorm.DB
	Registry  *Registry
	BatchSize int
}

// NewSaver returns a Saver over db using DefaultRegistry.
func NewSaver(db *gorm.DB, batchSize int) *Saver {
	return &Saver{DB: db, Registry: DefaultRegistry(), BatchSize: batchSize}
}

func (s *Saver) registry() *Registry {
	if s.Registry == nil {
		return DefaultRegistry()
	}
	return s.Registry
}

func (s *Saver) batch() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// Save consumes records, then writes the whole batch in one transaction:
// envelopes (ignoring known (guid, table) pairs), entity rows per table
// (ignoring known codes), then the reference link pass. A record error
// aborts before the transaction starts; a storage error rolls everything
// back and is returned as a *PersistenceError.
func (s *Saver) Save(ctx context.Context, records iter.Seq2[Record, error]) (*Result, error) {
	tr := otel.Tracer("importer/Saver")
	ctx, span := tr.Start(ctx, "Save")
	defer span.End()

	reg := s.registry()
	p, err := buildPlan(reg, records)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan")
		return nil, err
	}
	span.SetAttributes(attribute.Int("import.records", p.records))

	res := &Result{Records: p.records, Tables: make(map[domain.TableType]domain.TableCounts, len(p.tables))}
	if p.records == 0 {
		return res, nil
	}

	lg := zerolog.Ctx(ctx)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := repo.InsertLogRecords(ctx, tx, p.envelopes, repo.ChunkSize(tx, s.batch(), envelopeParams))
		if err != nil {
			return &PersistenceError{Op: "insert", Table: domain.LogRecord{}.TableName(), Err: err}
		}
		res.EnvelopesInserted = n
		res.EnvelopesIgnored = int64(len(p.envelopes)) - n

		for _, t := range reg.Tables() {
			tp := p.tables[t]
			if tp == nil {
				continue
			}
			cols := tp.schema.Columns()
			n, err := repo.InsertRows(ctx, tx, tp.schema.StorageTable, tp.rows, repo.ChunkSize(tx, s.batch(), len(cols)))
			if err != nil {
				return &PersistenceError{Op: "insert", Table: tp.schema.StorageTable, Err: err}
			}
			res.Tables[t] = domain.TableCounts{
				Received: int64(len(tp.rows)),
				Inserted: n,
				Ignored:  int64(len(tp.rows)) - n,
			}
			lg.Debug().Str("table", string(t)).Int("rows", len(tp.rows)).Int64("inserted", n).Msg("import rows written")
		}

		return s.link(ctx, tx, reg, p, res)
	})
	if err != nil {
		var pe *PersistenceError
		if !errors.As(err, &pe) {
			err = &PersistenceError{Op: "commit", Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist")
		return nil, err
	}

	span.AddEvent("committed", trace.WithAttributes(
		attribute.Int64("import.envelopes_inserted", res.EnvelopesInserted),
		attribute.Int64("import.envelopes_ignored", res.EnvelopesIgnored),
	))
	return res, nil
}
