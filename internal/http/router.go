// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, the global error boundary,
// panic recovery, compression, metrics, CORS, and security headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - One error boundary: handlers push errors, ErrorHandler answers them
//   - Deterministic router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-failurelog-api/docs"
	"github.com/tbourn/go-failurelog-api/internal/config"
	"github.com/tbourn/go-failurelog-api/internal/domain"
	"github.com/tbourn/go-failurelog-api/internal/http/handlers"
	"github.com/tbourn/go-failurelog-api/internal/http/middleware"
	"github.com/tbourn/go-failurelog-api/internal/http/response"
	"github.com/tbourn/go-failurelog-api/internal/repo"
	"github.com/tbourn/go-failurelog-api/internal/services"
)

// failureLogRepoShim adapts the repository free functions to
// services.FailureLogRepo.
type failureLogRepoShim struct{}

// CreateFailureLog proxies repo.CreateFailureLog.
func (failureLogRepoShim) CreateFailureLog(ctx context.Context, db *gorm.DB, fl *domain.FailureLog) (*domain.FailureLog, error) {
	return repo.CreateFailureLog(ctx, db, fl)
}

// ListFailureLogs proxies repo.ListFailureLogs.
func (failureLogRepoShim) ListFailureLogs(ctx context.Context, db *gorm.DB, f repo.FailureLogFilter) ([]domain.FailureLog, error) {
	return repo.ListFailureLogs(ctx, db, f)
}

// FailureLogStats proxies repo.FailureLogStats.
func (failureLogRepoShim) FailureLogStats(ctx context.Context, db *gorm.DB) (map[domain.Severity]int64, *time.Time, error) {
	return repo.FailureLogStats(ctx, db)
}

// productRepoShim adapts the repository free functions to
// services.ProductRepo.
type productRepoShim struct{}

// CreateProduct proxies repo.CreateProduct.
func (productRepoShim) CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) (*domain.Product, error) {
	return repo.CreateProduct(ctx, db, p)
}

// ListProducts proxies repo.ListProducts.
func (productRepoShim) ListProducts(ctx context.Context, db *gorm.DB, f repo.ProductFilter) ([]domain.Product, error) {
	return repo.ListProducts(ctx, db, f)
}

// GetProduct proxies repo.GetProduct.
func (productRepoShim) GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	return repo.GetProduct(ctx, db, id)
}

// Services bundles the application services built over one database handle.
// Failures doubles as the failure recorder's store.
type Services struct {
	Failures *services.FailureLogService
	Products *services.ProductService
}

// NewServices constructs the services. Each store call is bounded by the
// configured socket timeout.
func NewServices(db *gorm.DB, cfg config.Config) Services {
	timeout := cfg.Database.SocketTimeout
	return Services{
		Failures: services.NewFailureLogService(db, failureLogRepoShim{}, timeout),
		Products: services.NewProductService(db, productRepoShim{}, timeout),
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the protected API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Metrics: observes the final status written below it
//  5. gzip: must wrap every writer of the body, ErrorHandler included
//  6. ErrorHandler: records and answers every error
//  7. Recovery: turns panics into errors for ErrorHandler
//  8. Body size limiter
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, svc Services, rec middleware.FailureRecorder, cfg config.Config) {
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.Use(middleware.ErrorHandler(rec, cfg.Env))
	r.Use(middleware.Recovery())

	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	r.Use(limitBody(maxBody))

	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:            cfg.Security.EnableHSTS,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		ContentSecurityPolicy: middleware.DefaultContentSecurityPolicy,
		EnablePolicy:          true,
	}))

	// Unknown routes and methods share one 404 answer.
	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "Route "+c.Request.URL.RequestURI()+" not found")
	})

	h := handlers.New(svc.Failures, svc.Products, cfg.Env)

	r.GET("/health", h.Health)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Auth())
	{
		api.POST("/failure-logs", h.CreateFailureLog)
		api.GET("/failure-logs", h.ListFailureLogs)
		api.GET("/failure-logs/stats", h.FailureLogStats)

		api.POST("/products", h.CreateProduct)
		api.GET("/products", h.ListProducts)
		api.GET("/products/:id", h.GetProduct)
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// echoes allowlisted origins.
func corsMiddleware(cc config.CORSConfig) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		base.AllowAllOrigins = true
		// Force ACAO: * even for requests without an Origin header.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(cc.AllowedOrigins))
	for _, o := range cc.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = cc.AllowedOrigins
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
		cors.New(base),
	}
}

// limitBody caps the request body size using http.MaxBytesReader. Reads past
// the cap fail, which handlers report as invalid request data.
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
