// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, storage, import/export tuning, rate limiting,
// and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-pilotlog-backend/internal/sysutil"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// DBConfig selects the storage engine.
type DBConfig struct {
	Driver string // DB_DRIVER: sqlite|postgres
	Path   string // DB_PATH: SQLite file
	URL    string // DATABASE_URL: postgres DSN
}

// ImportConfig tunes logbook uploads.
type ImportConfig struct {
	BatchSize int   // IMPORT_BATCH_SIZE: rows per INSERT
	MaxBytes  int64 // IMPORT_MAX_BYTES: upload body cap
	RateCost  int   // IMPORT_RATE_COST: rate-limit tokens one upload consumes
}

// ExportConfig tunes logbook downloads.
type ExportConfig struct {
	ChunkSize    int    // EXPORT_CHUNK_SIZE: rows per projection query
	TemplateName string // EXPORT_TEMPLATE_NAME
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "pilotlog-backend")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// Storage
	DB DBConfig

	// Logbook
	Import ImportConfig
	Export ExportConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Idempotency
	IdempotencyTTL time.Duration // how long a given Idempotency-Key is valid

	// Observability
	OTEL OTELConfig
}

// DSN returns the connection string for the selected driver.
func (d DBConfig) DSN() string {
	if d.Driver == "postgres" {
		return d.URL
	}
	return d.Path
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result. The first failed check is
// returned together with the partially normalized config.
func Load() (Config, error) {
	cfg := Config{
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           ginMode(getenv("GIN_MODE", "release")),

		LogLevel:       logLevel(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		DB:     loadDB(),
		Import: loadImport(),
		Export: loadExport(),

		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", ""))},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		IdempotencyTTL: getdur("IDEMPOTENCY_TTL", 24*time.Hour),
		OTEL:           loadOTEL(),
	}
	return cfg, cfg.validate()
}

func loadDB() DBConfig {
	return DBConfig{
		Driver: strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		Path:   getenv("DB_PATH", "pilotlog.db"),
		URL:    getenv("DATABASE_URL", ""),
	}
}

func loadImport() ImportConfig {
	return ImportConfig{
		BatchSize: getint("IMPORT_BATCH_SIZE", 2000),
		MaxBytes:  getint64("IMPORT_MAX_BYTES", 32<<20),
		RateCost:  getint("IMPORT_RATE_COST", 5),
	}
}

func loadExport() ExportConfig {
	return ExportConfig{
		ChunkSize:    getint("EXPORT_CHUNK_SIZE", 100),
		TemplateName: getenv("EXPORT_TEMPLATE_NAME", "ForeFlight Logbook Import"),
	}
}

func loadOTEL() OTELConfig {
	return OTELConfig{
		Enabled:     getbool("OTEL_ENABLED", false),
		Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
		ServiceName: getenv("OTEL_SERVICE_NAME", "pilotlog-backend"),
		SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
	}
}

// ginMode maps unknown modes to release.
func ginMode(m string) string {
	switch m = strings.ToLower(m); m {
	case "debug", "release", "test":
		return m
	}
	return "release"
}

// logLevel lowercases l and folds "warning" into "warn".
func logLevel(l string) string {
	if l = strings.ToLower(l); l == "warning" {
		return "warn"
	}
	return l
}

// check is one validation rule; msg is returned when bad holds.
type check struct {
	bad bool
	msg string
}

func (c Config) validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}

	checks := []check{
		{strings.TrimSpace(c.Port) == "", "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
	}
	checks = append(checks, c.DB.checks()...)
	checks = append(checks, []check{
		{c.Import.BatchSize < 1, "IMPORT_BATCH_SIZE must be >= 1"},
		{c.Import.MaxBytes < 1, "IMPORT_MAX_BYTES must be >= 1"},
		{c.Import.RateCost < 1, "IMPORT_RATE_COST must be >= 1"},
		{c.Export.ChunkSize < 1, "EXPORT_CHUNK_SIZE must be >= 1"},
		{strings.TrimSpace(c.Export.TemplateName) == "", "EXPORT_TEMPLATE_NAME must not be empty"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.IdempotencyTTL <= 0, "IDEMPOTENCY_TTL must be > 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}...)

	for _, ck := range checks {
		if ck.bad {
			return errors.New(ck.msg)
		}
	}
	return nil
}

func (d DBConfig) checks() []check {
	switch d.Driver {
	case "sqlite":
		return []check{{strings.TrimSpace(d.Path) == "", "DB_PATH must not be empty"}}
	case "postgres":
		return []check{{strings.TrimSpace(d.URL) == "", "DATABASE_URL is required when DB_DRIVER=postgres"}}
	}
	return []check{{true, "DB_DRIVER must be one of: sqlite, postgres"}}
}

// ---- helpers ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getint64(k string, def int64) int64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if sysutil.IsTruthy(v) {
			return true
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
