package app

import (
	"github.com/gin-gonic/gin"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/server"
)

func wireRouter(log *logger.Logger, handlerset Handlers, middlewareset Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:            log,
		AuthMiddleware: middlewareset.Auth,
		HealthHandler:  handlerset.Health,
		AuthHandler:    handlerset.Auth,
		PackageHandler: handlerset.Package,
		ContentHandler: handlerset.Content,
		SessionHandler: handlerset.Session,
	})
}
