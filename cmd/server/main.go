package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resqlink/internal/config"
	"resqlink/internal/handlers"
	"resqlink/internal/middleware"
	"resqlink/internal/repositories/mongodb"
	"resqlink/routes"
	"resqlink/internal/services"
	"resqlink/pkg/cache"
	"resqlink/pkg/database"
	"resqlink/pkg/logger"
	"resqlink/pkg/maps"
	"resqlink/pkg/sms"
	"resqlink/pkg/websocket"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Infof("Starting %s %s (%s)", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	mongoDB, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	if err := database.NewMigrator(mongoDB.Database).Up(); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	// Redis is optional infrastructure; caching and rate limiting degrade
	// gracefully without it.
	var redisCache *cache.RedisCache
	if rc, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}); err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
	} else {
		redisCache = rc
		defer redisCache.Close()
	}

	var signalCache mongodb.CacheService
	if redisCache != nil {
		signalCache = redisCache
	}

	signalRepo := mongodb.NewSignalRepository(mongoDB.Database, signalCache)
	responseRepo := mongodb.NewResponseRepository(mongoDB.Database)
	responderRepo := mongodb.NewResponderRepository(mongoDB.Database)
	missingRepo := mongodb.NewMissingPersonRepository(mongoDB.Database)

	wsHandler := websocket.NewHandler()
	smsProvider := buildSMSProvider(cfg, log)
	geocoder := buildGeocoder(cfg, log)

	sosService := services.NewSOSService(signalRepo, responseRepo, responderRepo, missingRepo, wsHandler, geocoder, smsProvider, cfg, log)
	responderService := services.NewResponderService(responderRepo, log)
	missingService := services.NewMissingPersonService(missingRepo, log)

	escalation := services.NewEscalationService(signalRepo, smsProvider, cfg, log)
	go escalation.Start()
	defer escalation.Stop()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))

	secretKey := cfg.Security.JWTSecret

	routes.SetupSOSRoutes(router, handlers.NewSOSHandler(sosService, log), secretKey, redisCache)
	routes.SetupResponderRoutes(router, handlers.NewResponderHandler(responderService, log), secretKey)
	routes.SetupMissingPersonRoutes(router, handlers.NewMissingPersonHandler(missingService, log), secretKey)

	router.GET("/ws", middleware.AuthRequired(secretKey), wsHandler.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := mongoDB.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	})

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Forced shutdown")
	}
}

func buildSMSProvider(cfg *config.Config, log *logger.Logger) sms.SMSProvider {
	switch cfg.SMS.Provider {
	case "twilio":
		if cfg.SMS.Twilio.AccountSID == "" {
			log.Warn("Twilio not configured, SMS disabled")
			return nil
		}
		return sms.NewTwilioProvider(cfg.SMS.Twilio.AccountSID, cfg.SMS.Twilio.AuthToken, cfg.SMS.Twilio.FromNumber)
	case "aws_sns":
		provider, err := sms.NewAWSSNSProvider(cfg.SMS.AWS.Region)
		if err != nil {
			log.WithError(err).Warn("AWS SNS unavailable, SMS disabled")
			return nil
		}
		return provider
	default:
		log.Warnf("Unknown SMS provider %q, SMS disabled", cfg.SMS.Provider)
		return nil
	}
}

func buildGeocoder(cfg *config.Config, log *logger.Logger) maps.Geocoder {
	if !cfg.Maps.Enabled || cfg.Maps.GoogleMaps.APIKey == "" {
		return nil
	}
	geocoder, err := maps.NewGoogleMapsGeocoder(cfg.Maps.GoogleMaps.APIKey)
	if err != nil {
		log.WithError(err).Warn("Geocoder unavailable, addresses will not be resolved")
		return nil
	}
	return geocoder
}
