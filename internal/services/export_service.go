// Package services – ExportService
//
// This file implements ExportService, which streams the persisted logbook
// through the export template, the renderer and a format writer. Rows are
// queried page by page while the response is written.
package services

import (
	"context"
	"io"
	"iter"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/export"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Export formats accepted by WriterFor.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportService renders the logbook export.
type ExportService struct {
	DB           *gorm.DB
	PageSize     int
	TemplateName string
}

// NewExportService constructs an ExportService.
func NewExportService(db *gorm.DB, pageSize int, templateName string) *ExportService {
	return &ExportService{DB: db, PageSize: pageSize, TemplateName: templateName}
}

// WriterFor returns the writer for format; an empty format means csv.
func (s *ExportService) WriterFor(format string) (export.Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatCSV:
		return export.CSVWriter{}, nil
	case FormatXLSX:
		return export.XLSXWriter{Sheet: s.templateName()}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

func (s *ExportService) templateName() string {
	if s.TemplateName != "" {
		return s.TemplateName
	}
	return export.LogbookTemplateName
}

// Export writes the logbook to w with wr and returns the number of rows
// written, title and header rows included.
func (s *ExportService) Export(ctx context.Context, w io.Writer, wr export.Writer) (int, error) {
	tr := otel.Tracer("services/ExportService")
	ctx, span := tr.Start(ctx, "Export",
		trace.WithAttributes(attribute.String("export.format", wr.Extension())),
	)
	defer span.End()

	a := export.NewAssembler(s.DB, s.PageSize)
	a.Name = s.templateName()
	tpl := a.Logbook(ctx)

	counts := make(map[string]int, len(tpl.Tables))
	for i := range tpl.Tables {
		if t := &tpl.Tables[i]; t.Rows != nil {
			t.Rows = counted(t.Rows, t.Name, counts)
		}
	}

	n, err := wr.Write(w, export.Render(tpl))
	for name, c := range counts {
		exportRows.WithLabelValues(name).Add(float64(c))
	}
	span.SetAttributes(attribute.Int("export.rows", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return n, err
	}

	tables := zerolog.Dict()
	for name, c := range counts {
		tables.Int(name, c)
	}
	zerolog.Ctx(ctx).Info().
		Str("format", wr.Extension()).
		Int("rows", n).
		Dict("tables", tables).
		Msg("logbook exported")
	return n, nil
}

func counted(rows iter.Seq2[export.Row, error], name string, counts map[string]int) iter.Seq2[export.Row, error] {
	return func(yield func(export.Row, error) bool) {
		for r, err := range rows {
			if err == nil {
				counts[name]++
			}
			if !yield(r, err) {
				return
			}
		}
	}
}
