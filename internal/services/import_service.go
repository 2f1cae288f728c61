// Package services – ImportService
//
// This file implements ImportService, which turns an uploaded logbook export
// into persisted rows: it checks the upload, decodes and validates every
// record, saves them through the importer in one transaction, and stores an
// ImportRun summary alongside. A repeated Idempotency-Key from the same user
// replays the stored run instead of importing again.
//
// Observability: public methods are OpenTelemetry-instrumented; outcomes feed
// the pilotlog_import_* Prometheus collectors.
package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
	"github.com/tbourn/go-pilotlog-backend/internal/importer"
	"github.com/tbourn/go-pilotlog-backend/internal/repo"
	"github.com/tbourn/go-pilotlog-backend/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ImportService coordinates uploads and the import history.
type ImportService struct {
	DB        *gorm.DB
	Registry  *importer.Registry
	BatchSize int

	// IdempotencyTTL bounds how long a keyed run can be replayed.
	IdempotencyTTL time.Duration

	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// NewImportService returns an ImportService over the default schema registry.
func NewImportService(db *gorm.DB, batchSize int, ttl time.Duration) *ImportService {
	return &ImportService{
		DB:             db,
		Registry:       importer.DefaultRegistry(),
		BatchSize:      batchSize,
		IdempotencyTTL: ttl,
	}
}

func (s *ImportService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ImportService) ttl() time.Duration {
	if s.IdempotencyTTL > 0 {
		return s.IdempotencyTTL
	}
	return 24 * time.Hour
}

// Import stores payload as one logbook import for userID. When key is set and
// a run with that key is still live, the stored run is returned with
// replayed=true and nothing is written.
func (s *ImportService) Import(ctx context.Context, userID, key, fileName string, payload []byte) (run *domain.ImportRun, replayed bool, err error) {
	tr := otel.Tracer("services/ImportService")
	ctx, span := tr.Start(ctx, "Import",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("file.name", fileName),
			attribute.Int("file.bytes", len(payload)),
			attribute.Bool("idempotency.key", key != ""),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			importFailures.WithLabelValues(failureKind(err)).Inc()
		}
	}()

	if !isJSONFileName(fileName) {
		return nil, false, ErrInvalidFileType
	}
	if len(payload) == 0 {
		return nil, false, ErrEmptyUpload
	}

	key = strings.TrimSpace(key)
	if key != "" {
		prev, err := repo.GetImportRunByKey(ctx, s.DB, userID, key, s.now())
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("import.replayed", true))
			return prev, true, nil
		case !errors.Is(err, repo.ErrNotFound):
			return nil, false, err
		}
	}

	raws, err := importer.Decode(payload)
	if err != nil {
		return nil, false, err
	}
	records := importer.NewValidator(s.Registry).Records(raws)

	run = &domain.ImportRun{UserID: userID, FileName: fileName}
	if key != "" {
		run.Key = &key
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		saver := &importer.Saver{DB: tx, Registry: s.Registry, BatchSize: s.BatchSize}
		res, err := saver.Save(ctx, records)
		if err != nil {
			return err
		}
		run.Records = int64(res.Records)
		run.EnvelopesAdded = res.EnvelopesInserted
		run.EnvelopesIgnored = res.EnvelopesIgnored
		run.Tables = res.Tables
		run.DurationMS = time.Since(start).Milliseconds()
		run.CreatedAt = s.now()
		if key != "" {
			if err := repo.ReleaseExpiredKey(ctx, tx, userID, key, run.CreatedAt); err != nil {
				return err
			}
		}
		return repo.CreateImportRun(ctx, tx, run, s.ttl())
	})
	if errors.Is(err, repo.ErrDuplicate) && key != "" {
		// A concurrent request with the same key committed first.
		prev, gerr := repo.GetImportRunByKey(ctx, s.DB, userID, key, s.now())
		if gerr == nil {
			return prev, true, nil
		}
	}
	if err != nil {
		return nil, false, err
	}

	importDuration.Observe(time.Since(start).Seconds())
	for t, c := range run.Tables {
		importRecords.WithLabelValues(string(t)).Add(float64(c.Received))
	}
	span.SetAttributes(
		attribute.String("import.id", run.ID),
		attribute.Int64("import.records", run.Records),
	)
	zerolog.Ctx(ctx).Info().
		Str("import_id", run.ID).
		Int64("records", run.Records).
		Int64("envelopes_inserted", run.EnvelopesAdded).
		Int64("envelopes_ignored", run.EnvelopesIgnored).
		Int64("inserted", sumCounts(run.Tables, func(c domain.TableCounts) int64 { return c.Inserted })).
		Int64("resolved", sumCounts(run.Tables, func(c domain.TableCounts) int64 { return c.Resolved })).
		Int64("dangling", sumCounts(run.Tables, func(c domain.TableCounts) int64 { return c.Dangling })).
		Msg("logbook imported")
	return run, false, nil
}

// ListPage returns a page of the user's import runs, newest first.
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *ImportService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ImportRun, int64, error) {
	tr := otel.Tracer("services/ImportService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := utils.Page{Number: page, Size: pageSize}.Offset()

	total, err := repo.CountImportRuns(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ImportRun{}, 0, nil
	}

	items, err := repo.ListImportRunsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns one of the user's import runs or ErrImportRunNotFound.
func (s *ImportService) Get(ctx context.Context, userID, id string) (*domain.ImportRun, error) {
	tr := otel.Tracer("services/ImportService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("import.id", id),
		),
	)
	defer span.End()

	run, err := repo.GetImportRun(ctx, s.DB, id, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrImportRunNotFound
	}
	return run, err
}

func failureKind(err error) string {
	var (
		me *importer.MalformedInputError
		ve *importer.ValidationError
		pe *importer.PersistenceError
	)
	switch {
	case errors.As(err, &me):
		return failMalformed
	case errors.As(err, &ve):
		return failValidation
	case errors.As(err, &pe):
		return failPersistence
	case errors.Is(err, ErrInvalidFileType), errors.Is(err, ErrEmptyUpload):
		return failRejected
	default:
		return failOther
	}
}

func sumCounts(m map[domain.TableType]domain.TableCounts, f func(domain.TableCounts) int64) int64 {
	var n int64
	for _, c := range m {
		n += f(c)
	}
	return n
}

// isJSONFileName reports whether name ends in a ".json" extension. A bare
// dotfile such as ".json" has no extension.
func isJSONFileName(name string) bool {
	base := filepath.Base(name)
	return filepath.Ext(base) == ".json" && base != ".json"
}
