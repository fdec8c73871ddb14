package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/kbsync/internal/api/handler"
	"github.com/timmy/kbsync/internal/api/middleware"
	"github.com/timmy/kbsync/internal/config"
	"github.com/timmy/kbsync/internal/logger"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	reports handler.ReportStore,
	cfg *config.ServerConfig,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler(reports)
	reportHandler := handler.NewReportHandler(reports)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Reports
		v1.GET("/reports", reportHandler.ListReports)
		v1.GET("/reports/:id", reportHandler.GetReport)
	}

	return r
}
