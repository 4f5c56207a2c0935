package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/luminapos/corrispettivi/internal/middleware"
	"github.com/luminapos/corrispettivi/pkg/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Auditor tooling runs in browsers; the device surface does not
	// need CORS but sharing the policy keeps the router uniform.
	r.Use(cors.Default())

	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupIngestRoutes(r, cfg, services)
	setupAuditRoutes(r, cfg, services)
}

// setupIngestRoutes configures the rate-limited PEM-facing group.
func setupIngestRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		// Fall back to the documented default rather than starting
		// an unthrottled ingestion surface.
		rate, _ = limiter.NewRateFromFormatted("50-S")
	}
	store := memory.NewStore()
	ipLimiter := limiter.New(store, rate)

	v1 := r.Group("/api/v1", middleware.RateLimit(ipLimiter))
	RegisterIngestRoutes(v1, services.Ingestion)
}

// setupAuditRoutes configures the auditor-facing group behind JWT auth.
func setupAuditRoutes(r *gin.Engine, cfg *config.Config, services *portssvc.ServiceContainer) {
	audit := r.Group("/api/v1/audit", middleware.AuditAuthMiddleware(cfg.AuditJWTSecret))
	RegisterAuditRoutes(audit, services.Audit)
}
