package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/coursekit/scormlite-backend/internal/http/handlers"
	"github.com/coursekit/scormlite-backend/internal/http/middleware"
	"github.com/coursekit/scormlite-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *middleware.AuthMiddleware
	HealthHandler  *handlers.HealthHandler
	AuthHandler    *handlers.AuthHandler
	PackageHandler *handlers.PackageHandler
	ContentHandler *handlers.ContentHandler
	SessionHandler *handlers.SessionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(otelgin.Middleware("scormlite-backend"))
	router.Use(middleware.RequestLogger(cfg.Log))

	// Public
	router.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.POST("/refresh", cfg.AuthHandler.Refresh)
	}

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		protected.POST("/logout", cfg.AuthHandler.Logout)

		protected.POST("/packages", cfg.PackageHandler.Upload)
		protected.GET("/packages", cfg.PackageHandler.List)
		protected.GET("/packages/:id", cfg.PackageHandler.Get)
		protected.DELETE("/packages/:id", cfg.PackageHandler.Delete)
		protected.GET("/packages/:id/outline", cfg.PackageHandler.Outline)

		protected.POST("/packages/:id/sessions", cfg.SessionHandler.Launch)
		protected.POST("/sessions/:id/invoke", cfg.SessionHandler.Invoke)
		protected.DELETE("/sessions/:id", cfg.SessionHandler.End)
	}

	// Content frames authenticate by query token; the middleware accepts
	// both forms.
	content := router.Group("/content")
	content.Use(cfg.AuthMiddleware.RequireAuth())
	{
		content.GET("/:id/*path", cfg.ContentHandler.Serve)
	}

	return router
}
