package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/hn-links/internal/handler"
	"github.com/jonesrussell/hn-links/internal/middleware"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *gin.Engine,
	health *handler.HealthHandler,
	links *handler.LinksHandler,
	counters *handler.CounterHandler,
) {
	router.GET("/health", health.HealthCheck)

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.Visitor())

	apiGroup.GET("/links", links.List)
	apiGroup.GET("/links/export.csv", links.ExportCSV)
	apiGroup.GET("/fishtank", links.Fishtank)
	apiGroup.GET("/stats", links.Stats)

	apiGroup.POST("/clicks", counters.TrackClick)
	apiGroup.GET("/clicks", counters.GetClicks)
	apiGroup.POST("/likes/toggle", counters.ToggleLike)
	apiGroup.GET("/likes", counters.GetLikes)
}
