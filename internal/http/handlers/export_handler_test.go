package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
	"github.com/tbourn/go-pilotlog-backend/internal/export"
	"github.com/tbourn/go-pilotlog-backend/internal/repo"
	"github.com/tbourn/go-pilotlog-backend/internal/services"
)

func exportRouter(exp ExportService, st StatsService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := New(stubImportSvc{}, exp, st)
	r := gin.New()
	r.GET("/export", h.ExportLogbook)
	r.GET("/stats", h.GetStats)
	return r
}

func TestExportLogbook_StreamsWithAttachmentHeaders(t *testing.T) {
	var gotFormat string
	svc := stubExportSvc{
		writerFor: func(f string) (export.Writer, error) {
			gotFormat = f
			return export.CSVWriter{}, nil
		},
		export: func(_ context.Context, w io.Writer, _ export.Writer) (int, error) {
			_, err := io.WriteString(w, "a,b\n1,2\n")
			return 2, err
		},
	}
	r := exportRouter(svc, stubStatsSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if gotFormat != "" {
		t.Fatalf("format=%q", gotFormat)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content-type=%q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=export.csv" {
		t.Fatalf("content-disposition=%q", cd)
	}
	if w.Body.String() != "a,b\n1,2\n" {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestExportLogbook_XLSXHeaders(t *testing.T) {
	svc := stubExportSvc{writerFor: func(f string) (export.Writer, error) {
		if f != services.FormatXLSX {
			t.Fatalf("format=%q", f)
		}
		return export.XLSXWriter{}, nil
	}}
	r := exportRouter(svc, stubStatsSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?format=xlsx", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd != "attachment; filename=export.xlsx" {
		t.Fatalf("content-disposition=%q", cd)
	}
	if ct := w.Header().Get("Content-Type"); ct != (export.XLSXWriter{}).ContentType() {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestExportLogbook_UnsupportedFormat(t *testing.T) {
	svc := stubExportSvc{writerFor: func(string) (export.Writer, error) {
		return nil, services.ErrUnsupportedFormat
	}}
	r := exportRouter(svc, stubStatsSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export?format=pdf", nil))

	if w.Code != http.StatusBadRequest || decodeErr(t, w.Body.Bytes()).Code != ErrCodeBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestExportLogbook_ErrorBeforeFirstByte(t *testing.T) {
	svc := stubExportSvc{export: func(context.Context, io.Writer, export.Writer) (int, error) {
		return 0, errors.New("query failed")
	}}
	r := exportRouter(svc, stubStatsSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Fatalf("failed export must not advertise an attachment")
	}
	if decodeErr(t, w.Body.Bytes()).Code != ErrCodeExportFailed {
		t.Fatalf("body=%s", w.Body.String())
	}
}

func TestExportLogbook_ErrorMidStreamKeepsPartialBody(t *testing.T) {
	svc := stubExportSvc{export: func(_ context.Context, w io.Writer, _ export.Writer) (int, error) {
		_, _ = io.WriteString(w, "a,b\n")
		return 1, errors.New("connection reset")
	}}
	r := exportRouter(svc, stubStatsSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Body.String() != "a,b\n" {
		t.Fatalf("body=%q", w.Body.String())
	}
}

func TestGetStats(t *testing.T) {
	last := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	st := stubStatsSvc{stats: func(context.Context) (*repo.LogbookStats, error) {
		return &repo.LogbookStats{
			Envelopes:      map[domain.TableType]int64{domain.TableFlight: 3},
			Entities:       map[string]int64{"flights": 3},
			TotalEnvelopes: 3,
			LastModified:   &last,
		}, nil
	}}
	r := exportRouter(stubExportSvc{}, st)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var got repo.LogbookStats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("json: %v", err)
	}
	if got.TotalEnvelopes != 3 || got.Envelopes[domain.TableFlight] != 3 || got.LastModified == nil || !got.LastModified.Equal(last) {
		t.Fatalf("stats=%+v", got)
	}
}

func TestGetStats_Error(t *testing.T) {
	st := stubStatsSvc{stats: func(context.Context) (*repo.LogbookStats, error) {
		return nil, errors.New("db down")
	}}
	r := exportRouter(stubExportSvc{}, st)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
	if w.Code != http.StatusInternalServerError || decodeErr(t, w.Body.Bytes()).Code != ErrCodeInternal {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
}
