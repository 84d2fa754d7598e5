package http

import (
	"github.com/gin-gonic/gin"

	"github.com/supplymatch/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP, cfg.RateLimit.Burst))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		matches := v1.Group("/matches")
		{
			matches.POST("/search", handler.SearchMatches)
		}

		invoices := v1.Group("/invoices")
		{
			invoices.POST("/compare", handler.CompareInvoice)
		}

		v1.POST("/corrections", handler.SaveCorrection)
		v1.GET("/suppliers", handler.ListSuppliers)
		v1.POST("/catalog/import", handler.ImportCatalog)
	}

	return router
}
