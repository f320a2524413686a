package router

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"invoiceai/internal/config"
	"invoiceai/internal/handler"
	"invoiceai/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	extractH *handler.ExtractionHandler,
	healthH *handler.HealthHandler,
	log *slog.Logger,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)

	api := r.Group("/api")
	api.GET("/health", healthH.Health)
	api.POST("/invoice/extract", extractH.Extract)

	mountFrontend(r, cfg.Server.FrontendDir, log)

	return r
}

// mountFrontend serves the bundled single-page frontend when the directory exists.
func mountFrontend(r *gin.Engine, dir string, log *slog.Logger) {
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if log != nil {
			log.Info("frontend.disabled", "dir", dir)
		}
		return
	}

	r.Static("/static", dir)

	index := filepath.Join(dir, "index.html")
	if _, err := os.Stat(index); err == nil {
		r.GET("/", func(c *gin.Context) {
			c.File(index)
		})
	}
}
