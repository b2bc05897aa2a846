package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/foodlens/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if cfg.Server.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.Server.MaxUploadBytes
		handler.SetMaxUploadBytes(cfg.Server.MaxUploadBytes)
	}

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.PerIP > 0 {
		v1.Use(RateLimitMiddleware(NewIPRateLimiter(cfg.RateLimit.PerIP, cfg.RateLimit.Burst), logger))
	}
	{
		food := v1.Group("/food")
		{
			food.POST("/analyze", handler.AnalyzeImage)
			food.POST("/labels", handler.AnalyzeLabels)
			food.GET("/lookup", handler.Lookup)
			food.GET("/history", handler.History)
		}
	}

	return router
}
