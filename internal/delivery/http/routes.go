package http

import (
	"github.com/gin-gonic/gin"

	"github.com/adck872/ReceiptScanningAI/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	if cfg.RateLimit.PerIP > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	}

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/receipts", handler.UploadReceipt)

		pantry := v1.Group("/pantry")
		{
			pantry.GET("", handler.ListPantry)
			pantry.PUT("/:id", handler.UpdatePantryItem)
			pantry.DELETE("/:id", handler.DeletePantryItem)
		}

		v1.GET("/notifications", handler.Notifications)
	}

	return router
}
