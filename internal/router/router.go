package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/yukikurage/faculty-feedback-api/internal/config"
	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	"github.com/yukikurage/faculty-feedback-api/internal/handlers"
	"github.com/yukikurage/faculty-feedback-api/internal/middleware"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/repository"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
	"github.com/yukikurage/faculty-feedback-api/internal/token"
	"github.com/yukikurage/faculty-feedback-api/internal/validation"
)

// Dependencies are the external resources the API is built on.
// Limiter and Drafter may be nil.
type Dependencies struct {
	Config  *config.Config
	DB      *gorm.DB
	Store   services.AttachmentStore
	Limiter middleware.Limiter
	Drafter services.ResponseDrafter
	Logger  *zap.Logger
}

// New wires repositories, services and handlers and returns the engine
func New(deps Dependencies) (*gin.Engine, error) {
	if err := validation.Register(); err != nil {
		return nil, err
	}

	repo := repository.New(deps.DB)
	tokens := token.NewManager(deps.Config.Auth.JWTSecret, deps.Config.Auth.TokenTTL)

	authService := services.NewAuthService(repo.User, tokens, deps.Logger)
	categoryService := services.NewCategoryService(repo.Category)
	notificationService := services.NewNotificationService(repo.Notification, repo.User, deps.Logger)
	feedbackService := services.NewFeedbackService(repo, deps.Store, notificationService, deps.Drafter, deps.Logger)
	dashboardService := services.NewDashboardService(repo.Stats, deps.Logger)
	exportService := services.NewExportService(dashboardService, deps.Logger)

	h := handlers.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Category:     handlers.NewCategoryHandler(categoryService),
		Feedback:     handlers.NewFeedbackHandler(feedbackService),
		Notification: handlers.NewNotificationHandler(notificationService),
		Dashboard:    handlers.NewDashboardHandler(dashboardService, exportService),
	}

	return Setup(deps.Config, h, authService, deps.Limiter, deps.Logger), nil
}

// Setup registers middleware and routes
func Setup(cfg *config.Config, h handlers.Handlers, validator middleware.SessionValidator, limiter middleware.Limiter, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Upload.MaxRequestBytes()))

	store := cookie.NewStore([]byte(cfg.Auth.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Auth.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Auth.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	rateLimit := middleware.RateLimit(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)
	requireAuth := middleware.RequireAuth(validator)
	staff := middleware.RequireRole(services.StaffRoles...)
	reporting := middleware.RequireRole(services.ReportingRoles...)
	adminOnly := middleware.RequireRole(models.RoleFacultyAdmin)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Faculty Feedback API is running",
		})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rateLimit, h.Auth.Register)
			auth.POST("/login", rateLimit, h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
			auth.PUT("/profile", requireAuth, h.Auth.UpdateProfile)
		}

		categories := api.Group("/categories")
		{
			categories.GET("", h.Category.ListCategories)
			categories.GET("/:id", h.Category.GetCategory)
			categories.POST("", requireAuth, adminOnly, h.Category.CreateCategory)
			categories.PUT("/:id", requireAuth, adminOnly, h.Category.UpdateCategory)
		}

		feedback := api.Group("/feedback")
		{
			feedback.POST("", rateLimit, middleware.OptionalAuth(validator), h.Feedback.SubmitFeedback)
			feedback.GET("", requireAuth, h.Feedback.ListFeedback)
			feedback.GET("/my", requireAuth, h.Feedback.ListMyFeedback)
			feedback.GET("/:id", requireAuth, h.Feedback.GetFeedback)
			feedback.GET("/:id/attachments/:attachmentId", requireAuth, h.Feedback.DownloadAttachment)
			feedback.PATCH("/:id/status", requireAuth, staff, h.Feedback.UpdateStatus)
			feedback.POST("/:id/responses", requireAuth, staff, h.Feedback.AddResponse)
			feedback.POST("/:id/responses/draft", requireAuth, staff, h.Feedback.DraftResponse)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", h.Notification.ListNotifications)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.PATCH("/read-all", h.Notification.MarkAllAsRead)
			notifications.PATCH("/:id/read", h.Notification.MarkAsRead)
		}

		dashboard := api.Group("/dashboard")
		dashboard.Use(requireAuth, reporting)
		{
			dashboard.GET("/stats", h.Dashboard.GetStats)
			dashboard.GET("/unit-performance", h.Dashboard.GetUnitPerformance)
			dashboard.GET("/export", h.Dashboard.Export)
		}
	}

	return r
}
