package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router.
// All origins are allowed when allowedOrigins is empty.
func SetupRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}

	router.Use(cors.New(corsConfig))

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/tiles", handler.GetTiles)

	ci := v1.Group("/clumping-index")
	ci.GET("", handler.GetClumpingIndex)
	ci.GET("/point", handler.GetPoint)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
