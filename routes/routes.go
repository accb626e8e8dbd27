package routes

import (
	"github.com/gin-gonic/gin"

	"padayatra/internal/handlers"
	"padayatra/internal/middleware"
	"padayatra/pkg/logger"
	"padayatra/pkg/websocket"
)

// Handlers bundles everything SetupRouter wires into the engine.
type Handlers struct {
	Tracking  *handlers.TrackingHandler
	Journey   *handlers.JourneyHandler
	Temple    *handlers.TempleHandler
	User      *handlers.UserHandler
	WebSocket *websocket.Handler
	Health    gin.HandlerFunc
}

func SetupRouter(log *logger.Logger, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	if h.Health != nil {
		router.GET("/health", h.Health)
	}
	router.GET("/ws", h.WebSocket.HandleWebSocket)

	api := router.Group("/api/v1")
	SetupTrackingRoutes(api, h.Tracking)
	SetupJourneyRoutes(api, h.Journey)
	SetupTempleRoutes(api, h.Temple)
	SetupUserRoutes(api, h.User)

	return router
}
