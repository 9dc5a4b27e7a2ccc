package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter creates and configures the Gin router.
// An empty allowedOrigins list allows every origin.
func SetupRouter(service EnergyService, allowedOrigins []string) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	handler := NewHandler(service)

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.GET("/locations", handler.GetLocations)
	v1.GET("/locations/:name/energy", handler.GetEnergy)
	v1.GET("/dates", handler.GetDates)

	// Health check.
	router.GET("/health", handler.HealthCheck)

	return router
}
