package routes

import (
	"github.com/gin-gonic/gin"

	"padayatra/internal/handlers"
)

// SetupTempleRoutes wires the temple route endpoints.
func SetupTempleRoutes(r *gin.RouterGroup, templeHandler *handlers.TempleHandler) {
	temples := r.Group("/temples")
	{
		temples.GET("", templeHandler.ListTemples)
		temples.POST("", templeHandler.CreateTemple)
		temples.GET("/nearby", templeHandler.GetNearby)
		temples.GET("/:id", templeHandler.GetTemple)
	}
}
