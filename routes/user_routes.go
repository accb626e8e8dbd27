package routes

import (
	"github.com/gin-gonic/gin"

	"padayatra/internal/handlers"
)

// SetupUserRoutes wires pilgrim registration and lookup.
func SetupUserRoutes(r *gin.RouterGroup, userHandler *handlers.UserHandler) {
	users := r.Group("/users")
	{
		users.POST("", userHandler.CreateUser)
		users.GET("", userHandler.ListUsers)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id/tracking", userHandler.SetTracking)
	}
}
