// Package httpapi mounts the pilotlog API on a Gin engine: the middleware
// chain, the operational endpoints (/health, /metrics, /swagger) and the
// logbook routes under the configured base path.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-pilotlog-backend/docs"
	"github.com/tbourn/go-pilotlog-backend/internal/config"
	"github.com/tbourn/go-pilotlog-backend/internal/http/handlers"
	"github.com/tbourn/go-pilotlog-backend/internal/http/middleware"
	"github.com/tbourn/go-pilotlog-backend/internal/repo"
	"github.com/tbourn/go-pilotlog-backend/internal/services"
)

// defaultMaxBody caps uploads when IMPORT_MAX_BYTES is unset.
const defaultMaxBody int64 = 32 << 20

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsAllow   = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", "If-None-Match", middleware.HeaderIdempotencyKey}
	corsExpose  = []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag", "Idempotent-Replayed"}
)

// importRunLookup adapts repo.GetImportRunByKey to middleware.IdempotencyLookup.
// The validator treats lookup errors as a miss; the service repeats the lookup
// inside the import and surfaces them there.
func importRunLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		run, err := repo.GetImportRunByKey(ctx, db, userID, key, now)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		case err != nil:
			return false, err
		}
		return run != nil, nil
	}
}

// RegisterRoutes installs the middleware chain and every route on r.
//
// Order:
//  1. otelgin, RequestID, RedactingLogger, Recovery
//  2. body cap (IMPORT_MAX_BYTES) and HTTP metrics
//  3. IdempotencyValidator, then the rate limiter so replays skip the bucket
//  4. CORS, security headers, gzip
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	importPath := apiPath(cfg, "import")
	exportPath := apiPath(cfg, "export")

	r.Use(
		otelgin.Middleware(cfg.OTEL.ServiceName),
		middleware.RequestID(),
		middleware.RedactingLogger(middleware.RedactOptions{MaskHeaders: []string{"X-API-Key"}}),
		middleware.Recovery(),
	)

	maxBody := cfg.Import.MaxBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	r.Use(limitBody(maxBody), middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).
		WithCost(middleware.CostByRoute(http.MethodPost, importPath, cfg.Import.RateCost))
	r.Use(
		middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, importRunLookup(db)),
		rl.Handler(),
	)

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStorePaths: []string{exportPath, importPath},
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(
		services.NewImportService(db, cfg.Import.BatchSize, cfg.IdempotencyTTL),
		services.NewExportService(db, cfg.Export.ChunkSize, cfg.Export.TemplateName),
		&services.StatsService{DB: db},
	)
	mountLogbook(groupWithPrefix(r, cfg.APIBasePath), h)
}

func mountLogbook(api *gin.RouterGroup, h *handlers.Handlers) {
	api.POST("/import", h.ImportLogbook)
	api.GET("/imports", h.ListImports)
	api.GET("/imports/:id", h.GetImport)
	api.GET("/export", h.ExportLogbook)
	api.GET("/stats", h.GetStats)
}

// apiPath is the full route of endpoint under the API base path, as reported
// by gin's FullPath.
func apiPath(cfg config.Config, endpoint string) string {
	return path.Join("/", cfg.APIBasePath, endpoint)
}

// corsMiddleware allows any origin when origins is empty. Otherwise listed
// origins are echoed back. In both modes Access-Control-Allow-Origin is set on
// plain requests too, not only on preflight and Origin-bearing ones.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	conf := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsAllow,
		ExposeHeaders: corsExpose,
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		conf.AllowAllOrigins = true
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(conf),
		}
	}

	conf.AllowOrigins = origins
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(conf),
	}
}

// limitBody wraps the request body in http.MaxBytesReader; reads past
// maxBytes fail with *http.MaxBytesError.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
