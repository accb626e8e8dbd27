package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"google.golang.org/api/option"

	"padayatra/internal/config"
	"padayatra/internal/feed"
	"padayatra/internal/handlers"
	"padayatra/internal/models"
	"padayatra/internal/repositories/mongodb"
	"padayatra/internal/services"
	"padayatra/internal/tracker"
	"padayatra/pkg/cache"
	"padayatra/pkg/database"
	"padayatra/pkg/logger"
	"padayatra/pkg/maps"
	"padayatra/pkg/push"
	"padayatra/pkg/websocket"
	"padayatra/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	// Missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoDB.Close()

	if err := mongoDB.EnsureIndexes(ctx); err != nil {
		appLogger.Fatalf("Failed to ensure indexes: %v", err)
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	redisFeed := feed.NewRedisFeed(redisCache, appLogger)

	// Firebase is optional: the RTDB feed and FCM both hang off one app.
	var firebaseApp *firebase.App
	if cfg.Firebase.CredentialsFile != "" {
		firebaseApp, err = firebase.NewApp(ctx, &firebase.Config{
			DatabaseURL: cfg.Firebase.DatabaseURL,
		}, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		if err != nil {
			appLogger.Fatalf("Failed to initialize Firebase: %v", err)
		}
	}

	var pushProvider push.PushProvider
	if firebaseApp != nil && cfg.Firebase.PushEnabled {
		fcm, err := push.NewFCMProvider(ctx, firebaseApp)
		if err != nil {
			appLogger.Fatalf("Failed to initialize FCM: %v", err)
		}
		pushProvider = fcm
	}

	// The aggregator follows the Realtime Database when one is configured,
	// otherwise the Redis feed the server publishes to itself.
	var feedSource feed.Feed = redisFeed
	if firebaseApp != nil && cfg.Firebase.DatabaseURL != "" {
		firebaseFeed, err := feed.NewFirebaseFeed(ctx, firebaseApp, cfg.Firebase.DatabaseURL, cfg.Firebase.LocationsPath, cfg.Firebase.PollInterval, appLogger)
		if err != nil {
			appLogger.Fatalf("Failed to initialize Firebase feed: %v", err)
		}
		feedSource = firebaseFeed
	}

	var mapsProvider maps.MapsProvider
	if cfg.Maps.GoogleMapsAPIKey != "" {
		googleMaps, err := maps.NewGoogleMapsProvider(cfg.Maps.GoogleMapsAPIKey)
		if err != nil {
			appLogger.Fatalf("Failed to initialize Google Maps: %v", err)
		}
		mapsProvider = googleMaps
	}
	geocoding := services.NewGeocodingService(mapsProvider, redisCache, cfg.Maps.GeocodeCacheTTL, appLogger)

	userRepo := mongodb.NewUserRepository(mongoDB.Database)
	templeRepo := mongodb.NewTempleRepository(mongoDB.Database)

	journeyService := services.NewJourneyService(
		userRepo,
		templeRepo,
		redisFeed,
		pushProvider,
		geocoding,
		services.JourneyConfig{
			MinMovementMeters:   cfg.Tracking.MinMovementMeters,
			TempleSearchRadiusM: cfg.Tracking.TempleSearchRadiusM,
		},
		appLogger,
	)

	liveTracker := tracker.New(feedSource, tracker.Config{
		OnlineWindow: cfg.Tracking.OnlineWindow,
		AdminUserID:  cfg.Tracking.AdminUserID,
	}, appLogger)

	wsHandler := websocket.NewHandler(appLogger)
	hub := wsHandler.GetHub()

	liveTracker.SetNotify(func(state models.UserLocationState) {
		hub.BroadcastLocation(state.UserID, state.GroupID, state)
	})

	// Device sockets feed the journey pipeline; the applied update comes
	// back around over the feed, and Handle gives connected dashboards the
	// low-latency copy (the aggregator upsert is idempotent).
	hub.SetPositionSink(func(p websocket.PositionUpdate) {
		userID, err := primitive.ObjectIDFromHex(p.UserID)
		if err != nil {
			return
		}

		reportCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		result, err := journeyService.ReportPosition(reportCtx, userID, models.Position{
			UserID:    p.UserID,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Timestamp: p.Timestamp,
		})
		if err != nil {
			appLogger.WithUserID(p.UserID).WithError(err).Warn("WebSocket position report failed")
			return
		}
		if result.Applied {
			liveTracker.Handle(feed.Update{
				UserID:        p.UserID,
				Latitude:      p.Latitude,
				Longitude:     p.Longitude,
				Timestamp:     p.Timestamp,
				IsTracking:    true,
				TotalDistance: result.TotalDistance,
			})
		}
	})

	router := routes.SetupRouter(appLogger, routes.Handlers{
		Tracking:  handlers.NewTrackingHandler(liveTracker),
		Journey:   handlers.NewJourneyHandler(journeyService),
		Temple:    handlers.NewTempleHandler(templeRepo),
		User:      handlers.NewUserHandler(userRepo),
		WebSocket: wsHandler,
		Health: func(c *gin.Context) {
			if err := mongoDB.Ping(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "mongodb unreachable"})
				return
			}
			if err := redisCache.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "redis unreachable"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": cfg.App.Version})
		},
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		appLogger.Infof("Starting %s on port %d", cfg.App.Name, cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatalf("Server failed: %v", err)
		}
	}()

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-shutdownCtx.Done()

	appLogger.Info("Shutting down")
	liveTracker.Stop()

	timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(timeoutCtx); err != nil {
		appLogger.Errorf("Server shutdown failed: %v", err)
	}
}
