package http

import (
	"github.com/gin-gonic/gin"

	"github.com/reviewlens/harvester/config"
)

// SetupRouter configures the gin router with all routes and middleware
func SetupRouter(handler *Handler, cfg *config.Config) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))

	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api/v1")
	{
		products := api.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id/reviews", handler.GetProductReviews)
		}
	}

	return router
}
