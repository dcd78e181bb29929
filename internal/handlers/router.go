package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/notification-service/internal/cache"
	"github.com/SAP-F-2025/notification-service/internal/models"
	"github.com/SAP-F-2025/notification-service/internal/realtime"
	"github.com/SAP-F-2025/notification-service/internal/repositories"
	"github.com/SAP-F-2025/notification-service/internal/services"
	"github.com/SAP-F-2025/notification-service/internal/utils"
	"github.com/SAP-F-2025/notification-service/internal/validator"
)

// RouterConfig carries the settings the routes need beyond services.
type RouterConfig struct {
	MaxRecipients int
	RateLimit     int
	RateWindow    time.Duration
	AllowOrigins  []string
	WriteTimeout  time.Duration
	PongTimeout   time.Duration
}

type HandlerManager struct {
	notificationHandler *NotificationHandler
	preferenceHandler   *PreferenceHandler
	userHandler         *UserHandler
	liveHandler         *LiveHandler
	healthHandler       *HealthHandler
	authMiddleware      *AuthMiddleware
	rateLimiter         *cache.CacheHelper
	config              RouterConfig
	logger              utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	verifier TokenVerifier,
	userRepo repositories.UserRepository,
	registry *realtime.Manager,
	rateLimiter *cache.CacheHelper,
	healthChecks map[string]HealthCheckFunc,
	config RouterConfig,
) *HandlerManager {
	return &HandlerManager{
		notificationHandler: NewNotificationHandler(serviceManager.Notification(), serviceManager.Export(), validator, config.MaxRecipients, logger),
		preferenceHandler:   NewPreferenceHandler(serviceManager.Preference(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), userRepo, logger),
		liveHandler:         NewLiveHandler(registry, verifier, config.AllowOrigins, config.WriteTimeout, config.PongTimeout, logger),
		healthHandler:       NewHealthHandler(healthChecks, registry),
		authMiddleware:      NewAuthMiddleware(verifier),
		rateLimiter:         rateLimiter,
		config:              config,
		logger:              logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthHandler.Health)

	// The live channel authenticates from the query string and answers
	// failures with a close frame, so it sits outside the API group.
	router.GET("/ws/notifications", hm.liveHandler.Connect)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		preferences := v1.Group("/preferences")
		{
			preferences.GET("", hm.preferenceHandler.GetPreferences)
			preferences.PUT("", hm.preferenceHandler.UpdatePreferences)
			preferences.DELETE("", hm.preferenceHandler.ResetPreferences)
			preferences.GET("/effective", hm.preferenceHandler.GetEffectivePreferences)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", hm.notificationHandler.ListNotifications)
			notifications.GET("/unread-count", hm.notificationHandler.UnreadCount)
			notifications.PUT("/read-all", hm.notificationHandler.MarkAllAsRead)
			notifications.PUT("/:id/read", hm.notificationHandler.MarkAsRead)

			// Dispatch - Teachers and Admins only
			notifications.POST("/dispatch",
				hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin),
				RateLimitMiddleware(hm.rateLimiter, "dispatch", hm.config.RateLimit, hm.config.RateWindow, hm.logger),
				hm.notificationHandler.Dispatch)

			notifications.GET("/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.notificationHandler.ExportNotifications)
		}

		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetMe)
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.CreateUser)
			users.GET("/:id/preferences", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.preferenceHandler.GetUserPreferences)
		}
	}
}
