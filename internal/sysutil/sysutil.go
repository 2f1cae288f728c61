// Package sysutil holds process-level helpers shared by the server entry
// point and configuration loading.
package sysutil

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLogLevel maps LOG_LEVEL to a zerolog level. Empty or unknown values
// fall back to info; "warning" is accepted as an alias of warn.
func ParseLogLevel(lvl string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(lvl))
	if s == "warning" {
		s = "warn"
	}
	l, err := zerolog.ParseLevel(s)
	if err != nil || s == "" || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// SetupLogging sets the global level and points the global logger at out,
// as a human-readable console writer when pretty is set. Every record carries
// the service name so logs from import and export workers can be told apart
// from other processes sharing a sink.
func SetupLogging(out io.Writer, level string, pretty bool, service string) {
	zerolog.SetGlobalLevel(ParseLogLevel(level))
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", service).Logger()
}

// IsTruthy reports whether an environment value means "on":
// 1, true, yes, y or on, case-insensitive.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
