// Package handlers implements the pilotlog HTTP endpoints: logbook upload,
// import history, export download and stats.
//
// Every failure is answered with ErrorResponse and a stable code from
// errors.go. Client errors carry a message describing what to fix; server
// errors carry a fixed message per code, and the underlying error goes to
// the log under the response's request id.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-pilotlog-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope shared by every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID, for matching a failure to server logs
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go)
	Code string `json:"code" example:"validation_failed"`
	// Human-readable message
	Message string `json:"message" example:"record 3 (aircraft) field \"RefSearch\": missing required field"`
}

// internalMessages are the client-facing texts for 5xx codes.
var internalMessages = map[string]string{
	ErrCodeImportFailed: "logbook import failed",
	ErrCodeExportFailed: "logbook export failed",
	ErrCodeListFailed:   "could not list imports",
	ErrCodeInternal:     "internal server error",
}

func fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail writes the error envelope; the router uses it for 404/405 fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failInternal answers 500 with the fixed message for code. err is logged
// with the request-scoped logger and recorded on the context so the access
// log line is emitted at error level too.
func failInternal(c *gin.Context, code string, err error) {
	middleware.LoggerFrom(c).Error().
		Err(err).
		Str("code", code).
		Msg("api error")
	_ = c.Error(err)

	msg, found := internalMessages[code]
	if !found {
		msg = internalMessages[ErrCodeInternal]
	}
	fail(c, http.StatusInternalServerError, code, msg)
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
