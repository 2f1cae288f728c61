// Export and stats HTTP handlers.
//
//   - GET /export  (streamed CSV or XLSX download)
//   - GET /stats   (what the logbook holds)
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pilotlog-backend/internal/http/middleware"
	"github.com/tbourn/go-pilotlog-backend/internal/services"
)

// ExportLogbook godoc
// @ID          exportLogbook
// @Summary     Download the logbook
// @Description Streams every stored record as a template-driven spreadsheet. CSV by default; format=xlsx returns a workbook with the same rows.
// @Tags        Export
// @Produce     text/csv
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//
// @Param       format  query  string  false "Output format"  Enums(csv, xlsx) default(csv)
//
// @Success     200  {file}   file
// @Header      200  {string} Content-Disposition "attachment; filename=export.csv"
// @Failure     400  {object} handlers.ErrorResponse "Unsupported format"
// @Failure     500  {object} handlers.ErrorResponse "Export failed"
// @Router      /export [get]
func (h *Handlers) ExportLogbook(c *gin.Context) {
	wr, err := h.exportSvc.WriterFor(c.Query("format"))
	if err != nil {
		if errors.Is(err, services.ErrUnsupportedFormat) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		failInternal(c, ErrCodeExportFailed, err)
		return
	}

	c.Header("Content-Type", wr.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=export.%s", wr.Extension()))
	c.Status(http.StatusOK)

	n, err := h.exportSvc.Export(c.Request.Context(), c.Writer, wr)
	if err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Disposition")
			c.Writer.Header().Del("Content-Type")
			failInternal(c, ErrCodeExportFailed, err)
			return
		}
		// Headers are gone; all that is left is to cut the stream short.
		middleware.LoggerFrom(c).Error().Err(err).Int("rows", n).Msg("export aborted mid-stream")
		_ = c.Error(err)
		c.Abort()
	}
}

// GetStats godoc
// @ID          getStats
// @Summary     Logbook statistics
// @Description Envelope counts per table, entity row counts and the latest modification time.
// @Tags        Export
// @Produce     json
//
// @Success     200  {object} repo.LogbookStats
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /stats [get]
func (h *Handlers) GetStats(c *gin.Context) {
	st, err := h.statsSvc.Stats(c.Request.Context())
	if err != nil {
		failInternal(c, ErrCodeInternal, err)
		return
	}
	ok(c, http.StatusOK, st)
}
