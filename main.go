package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/notification-service/internal/cache"
	"github.com/SAP-F-2025/notification-service/internal/channels"
	"github.com/SAP-F-2025/notification-service/internal/config"
	"github.com/SAP-F-2025/notification-service/internal/events"
	"github.com/SAP-F-2025/notification-service/internal/handlers"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/realtime"
	"github.com/SAP-F-2025/notification-service/internal/repositories/casdoor"
	"github.com/SAP-F-2025/notification-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
	"github.com/SAP-F-2025/notification-service/internal/validator"
	"github.com/SAP-F-2025/notification-service/pkg"
	"github.com/SAP-F-2025/notification-service/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
			redisClient = nil
		}
	}

	cacheManager := cache.NewCacheManager(redisClient)

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:           db,
		RedisClient:  redisClient,
		CacheManager: cacheManager,
		UserSource:   cfg.UserSource,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Delivery channels
	registry := realtime.NewManager(slogLogger)
	senders := []channels.Sender{channels.NewLiveSender(registry)}

	var outbox *channels.Outbox
	if cfg.SMTP.Enabled() {
		mailer := channels.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		outbox = channels.NewOutbox(mailer, cfg.Dispatch.EmailWorkers, cfg.Dispatch.EmailQueueSize, cfg.Dispatch.EmailTimeout, slogLogger)
		senders = append(senders, channels.NewEmailSender(outbox))
	} else {
		logger.Warn("SMTP not configured, email notifications will be skipped")
	}

	if cfg.Twilio.Enabled() {
		creator := channels.NewTwilioCreator(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
		senders = append(senders, channels.NewSMSSender(creator, cfg.Twilio.FromNumber, cfg.Dispatch.SMSTimeout))
	} else {
		logger.Warn("Twilio not configured, sms notifications will be skipped")
	}

	// Event transport
	pubSub, err := events.NewPubSub(events.PubSubConfig{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
	}, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event transport: %v", err)
	}
	logger.Info("Event transport ready", "backend", pubSub.Backend)
	publisher := events.NewWatermillEventPublisher(pubSub.Publisher, cfg.Kafka.EventsTopic, slogLogger)

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repo, senders, publisher, slogLogger, validator, services.ServiceManagerConfig{
		MaxRecipients: cfg.Dispatch.MaxRecipients,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Requests from other services
	consumer, err := events.NewRequestConsumer(pubSub.Subscriber, cfg.Kafka.RequestsTopic, dispatchRequested(serviceManager.Notification()), slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize request consumer: %v", err)
	}
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Run(consumerCtx); err != nil {
			logger.Error("Request consumer stopped", "error", err)
		}
	}()

	// Token verification
	var verifier handlers.TokenVerifier
	switch cfg.Auth.Provider {
	case "casdoor":
		verifier = handlers.NewCasdoorVerifier(cfg.Casdoor, repo.User())
	default:
		verifier = handlers.NewJWTVerifier(jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTL))
	}

	healthChecks := map[string]handlers.HealthCheckFunc{
		"database": repoManager.HealthCheck,
	}
	if redisClient != nil {
		healthChecks["redis"] = cacheManager.HealthCheck
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(
		serviceManager,
		validator,
		logger,
		verifier,
		repo.User(),
		registry,
		cacheManager.RateLimit,
		healthChecks,
		handlers.RouterConfig{
			MaxRecipients: cfg.Dispatch.MaxRecipients,
			RateLimit:     cfg.Dispatch.RateLimit,
			RateWindow:    cfg.Dispatch.RateWindow,
			AllowOrigins:  cfg.Live.AllowOrigins,
			WriteTimeout:  cfg.Live.WriteTimeout,
			PongTimeout:   cfg.Live.PongTimeout,
		},
	)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger, cfg.Live.AllowOrigins)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment, "auth", cfg.Auth.Provider, "users", cfg.UserSource)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop taking new work first: HTTP, then the request consumer.
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	stopConsumer()
	if err := consumer.Close(); err != nil {
		log.Printf("Failed to close request consumer: %v", err)
	}

	// Drain queued email
	if outbox != nil {
		if err := outbox.Close(ctx); err != nil {
			log.Printf("Email outbox not drained: %v", err)
		}
	}

	registry.CloseAll()

	// Shutdown services
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}
	if err := pubSub.Close(); err != nil {
		log.Printf("Failed to close event transport: %v", err)
	}

	// Close database and Redis connections
	if err := repoManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to close repositories: %v", err)
	}

	logger.Info("Server exited")
}

// dispatchRequested adapts requests from the event bus to the dispatch
// service.
func dispatchRequested(notifications services.NotificationService) events.DispatchFunc {
	return func(ctx context.Context, req events.NotificationRequested) error {
		chans := make([]models.Channel, 0, len(req.Channels))
		for _, ch := range req.Channels {
			chans = append(chans, models.Channel(ch))
		}

		_, err := notifications.Notify(ctx, &services.DispatchRequest{
			UserIDs:     req.UserIDs,
			Subject:     req.Subject,
			Message:     req.Message,
			Type:        models.NotificationType(req.Type),
			Channels:    chans,
			Extra:       req.Extra,
			RequestedBy: req.Source,
		})
		return err
	}
}
