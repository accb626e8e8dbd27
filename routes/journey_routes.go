package routes

import (
	"github.com/gin-gonic/gin"

	"padayatra/internal/handlers"
)

// SetupJourneyRoutes wires per-pilgrim journey endpoints.
func SetupJourneyRoutes(r *gin.RouterGroup, journeyHandler *handlers.JourneyHandler) {
	// HTTP fallback for devices without a live websocket.
	r.POST("/tracking/positions", journeyHandler.ReportDevicePosition)

	journeys := r.Group("/journeys/:id")
	{
		journeys.GET("", journeyHandler.GetProgress)
		journeys.POST("/positions", journeyHandler.ReportPosition)
		journeys.POST("/positions/batch", journeyHandler.ReportBatch)
		journeys.POST("/start", journeyHandler.StartJourney)
		journeys.POST("/complete", journeyHandler.CompleteJourney)
		journeys.POST("/restart", journeyHandler.RestartJourney)
		journeys.GET("/progress", journeyHandler.GetProgress)
	}
}
