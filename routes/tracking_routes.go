package routes

import (
	"github.com/gin-gonic/gin"

	"padayatra/internal/handlers"
)

// SetupTrackingRoutes wires the admin live-tracking endpoints.
func SetupTrackingRoutes(r *gin.RouterGroup, trackingHandler *handlers.TrackingHandler) {
	tracking := r.Group("/tracking")
	{
		tracking.POST("/start", trackingHandler.StartTracking)
		tracking.POST("/stop", trackingHandler.StopTracking)
		tracking.GET("/status", trackingHandler.GetStatus)
		tracking.GET("/locations", trackingHandler.GetLocations)
		tracking.GET("/stats", trackingHandler.GetStats)
		tracking.PUT("/admin-location", trackingHandler.SetAdminLocation)
	}
}
