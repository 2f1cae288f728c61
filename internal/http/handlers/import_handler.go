// Import HTTP handlers.
//
// This file exposes REST endpoints for logbook uploads and their history:
//   - POST   /import        (upload, Idempotency-Key replay)
//   - GET    /imports       (list, paginated, ETag support)
//   - GET    /imports/{id}  (single run)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
	"github.com/tbourn/go-pilotlog-backend/internal/export"
	"github.com/tbourn/go-pilotlog-backend/internal/http/middleware"
	"github.com/tbourn/go-pilotlog-backend/internal/importer"
	"github.com/tbourn/go-pilotlog-backend/internal/repo"
	"github.com/tbourn/go-pilotlog-backend/internal/services"
	"github.com/tbourn/go-pilotlog-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ImportService defines upload and import-history operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ImportService interface {
	// Import stores payload for userID. replayed is true when key matched a
	// live run and nothing was written.
	Import(ctx context.Context, userID, key, fileName string, payload []byte) (run *domain.ImportRun, replayed bool, err error)
	// ListPage returns a page of the user's runs and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ImportRun, int64, error)
	// Get returns one run owned by userID.
	Get(ctx context.Context, userID, id string) (*domain.ImportRun, error)
}

// ExportService defines logbook download operations.
type ExportService interface {
	// WriterFor resolves a format query value to an output writer.
	WriterFor(format string) (export.Writer, error)
	// Export streams the logbook through wr into w and returns the row count.
	Export(ctx context.Context, w io.Writer, wr export.Writer) (int, error)
}

// StatsService reports what the logbook holds.
type StatsService interface {
	Stats(ctx context.Context) (*repo.LogbookStats, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for imports, exports, and stats.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	importSvc ImportService
	exportSvc ExportService
	statsSvc  StatsService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(importSvc ImportService, exportSvc ExportService, statsSvc StatsService) *Handlers {
	return &Handlers{importSvc: importSvc, exportSvc: exportSvc, statsSvc: statsSvc}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListImportsResponse wraps a page of import runs and pagination information.
type ListImportsResponse struct {
	Imports    []domain.ImportRun `json:"imports"`
	Pagination Pagination         `json:"pagination"`
}

//
// Helpers
//

// clampPagination reads page and page_size, defaulting to 20 rows per page
// and capping at 100.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	p := utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
	return p.Number, p.Size
}

// isTooLarge reports whether err came from the body size cap installed by
// the router.
func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "request body too large")
}

// failImport maps an import pipeline error onto the error envelope.
func failImport(c *gin.Context, err error) {
	var (
		me *importer.MalformedInputError
		ve *importer.ValidationError
	)
	switch {
	case errors.Is(err, services.ErrInvalidFileType):
		fail(c, http.StatusBadRequest, ErrCodeInvalidFileType, err.Error())
	case errors.Is(err, services.ErrEmptyUpload), errors.As(err, &me):
		fail(c, http.StatusBadRequest, ErrCodeMalformedInput, err.Error())
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	default:
		failInternal(c, ErrCodeImportFailed, err)
	}
}

//
// Handlers
//

// ImportLogbook godoc
// @ID          importLogbook
// @Summary     Import a logbook export
// @Description Uploads a JSON logbook export as multipart field "file". The whole file is stored in one transaction or not at all. A repeated Idempotency-Key returns the stored summary with 200.
// @Tags        Imports
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       X-User-ID        header    string  false "User ID (demo header)"       example(user123)
// @Param       Idempotency-Key  header    string  false "Replay key for retried uploads" example(upload-2025-01-01)
// @Param       file             formData  file    true  "Logbook export (.json)"
//
// @Success     201  {object}  domain.ImportRun
// @Success     200  {object}  domain.ImportRun        "Replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid file, malformed input or validation failure"
// @Failure     413  {object}  handlers.ErrorResponse  "Upload too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Import failed"
// @Router      /import [post]
func (h *Handlers) ImportLogbook(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "upload exceeds size limit")
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart field \"file\" required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot read uploaded file")
		return
	}
	defer f.Close()

	payload, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "cannot read uploaded file")
		return
	}

	key, _ := middleware.GetIdempotencyKey(c)
	run, replayed, err := h.importSvc.Import(c.Request.Context(), userID(c), key, fh.Filename, payload)
	if err != nil {
		failImport(c, err)
		return
	}

	if replayed {
		c.Header("Idempotent-Replayed", "true")
		ok(c, http.StatusOK, run)
		return
	}
	ok(c, http.StatusCreated, run)
}

// ListImports godoc
// @ID          listImports
// @Summary     List import runs (paginated)
// @Description Returns a page of the user's import runs, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Imports
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListImportsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /imports [get]
func (h *Handlers) ListImports(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, ok := h.importSvc.(*services.ImportService); ok {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ImportRunsStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"imports:%s:%d:%d:%d:%d"`, uid, count, ts, page, pageSize)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.importSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		failInternal(c, ErrCodeListFailed, err)
		return
	}

	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListImportsResponse{
		Imports: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetImport godoc
// @ID          getImport
// @Summary     Get an import run
// @Tags        Imports
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Import run ID (UUID)"   format(uuid)
//
// @Success     200  {object} domain.ImportRun
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Import run not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /imports/{id} [get]
func (h *Handlers) GetImport(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "import id must be a UUID")
		return
	}

	run, err := h.importSvc.Get(c.Request.Context(), userID(c), id)
	switch {
	case errors.Is(err, services.ErrImportRunNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "import run not found")
		return
	case err != nil:
		failInternal(c, ErrCodeInternal, err)
		return
	}
	ok(c, http.StatusOK, run)
}
