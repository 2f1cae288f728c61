package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func withCapturedLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestRedactingLogger_Redactions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}}))
	r.GET("/api/v1/imports/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	q := "email=a.b+tag@example.com&phone=+1-555-123-4567&code=123e4567-e89b-12d3-a456-426614174000"
	req := httptest.NewRequest(http.MethodGet, "/api/v1/imports/abc?"+q, nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("Cookie", "sid=topsecret")
	req.Header.Set("X-Api-Key", "shhh")
	req.Header.Set("X-Custom", "email a@b.com id=123e4567-e89b-12d3-a456-426614174000 phone 555-123-4567")
	req.Header.Set(requestIDHeader, "rid-req")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	logs := buf.String()
	for _, want := range []string{
		`"level":"info"`,
		`"path":"/api/v1/imports/:id"`,
		`"request_id":"rid-req"`,
		`[REDACTED:email]`, `[REDACTED:phone]`, `[REDACTED:id]`,
		`"Authorization":"[REDACTED]"`,
		`"Cookie":"[REDACTED]"`,
		`"X-Api-Key":"[REDACTED]"`,
		`"X-Custom":"email [REDACTED:email] id=[REDACTED:id] phone [REDACTED:phone]"`,
	} {
		if !strings.Contains(logs, want) {
			t.Fatalf("missing %s in: %s", want, logs)
		}
	}
	if strings.Contains(logs, "example.com") || strings.Contains(logs, "topsecret") {
		t.Fatalf("PII leaked: %s", logs)
	}
}

func TestRedactingLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/warn", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/error", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/export", func(c *gin.Context) {
		c.String(http.StatusOK, "a,b\r\n")
		_ = c.Error(errors.New("stream cut for pilot x@y.org"))
	})

	for path, rid := range map[string]string{"/warn": "rid-warn", "/error": "rid-err", "/export": "rid-exp"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(requestIDHeader, rid)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	levelOf := func(rid string) string {
		for _, l := range lines {
			if strings.Contains(l, `"request_id":"`+rid+`"`) {
				switch {
				case strings.Contains(l, `"level":"error"`):
					return "error"
				case strings.Contains(l, `"level":"warn"`):
					return "warn"
				default:
					return "info"
				}
			}
		}
		return ""
	}
	if got := levelOf("rid-warn"); got != "warn" {
		t.Fatalf("404 level=%q", got)
	}
	if got := levelOf("rid-err"); got != "error" {
		t.Fatalf("500 level=%q", got)
	}
	if got := levelOf("rid-exp"); got != "error" {
		t.Fatalf("aborted export level=%q", got)
	}
	if !strings.Contains(buf.String(), "[REDACTED:email]") || strings.Contains(buf.String(), "x@y.org") {
		t.Fatalf("handler error not redacted: %s", buf.String())
	}
}

func TestRedactingLogger_AttachesRequestScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := withCapturedLogger(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Header(requestIDHeader, "rid-ctx")
		c.Next()
	})
	r.Use(RedactingLogger(RedactOptions{}))
	r.POST("/import", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
		LoggerFrom(c).Info().Msg("from handler")
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/import", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}

	var tagged int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, `"message":"from `) && strings.Contains(line, `"request_id":"rid-ctx"`) {
			tagged++
		}
	}
	if tagged != 2 {
		t.Fatalf("expected both inner logs tagged with request id, got: %s", buf.String())
	}
}

func Test_redact(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"format=xlsx", "format=xlsx"},
		{"pilot@example.org", "[REDACTED:email]"},
		{"AC 3fa85f64-5717-4562-b3fc-2c963f66afa6", "AC [REDACTED:id]"},
	}
	for _, tc := range cases {
		if got := redact(tc.in); got != tc.want {
			t.Fatalf("redact(%q)=%q want %q", tc.in, got, tc.want)
		}
	}
}
