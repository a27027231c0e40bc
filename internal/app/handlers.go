package app

import (
	"github.com/coursekit/scormlite-backend/internal/http/handlers"
	"github.com/coursekit/scormlite-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Package *handlers.PackageHandler
	Content *handlers.ContentHandler
	Session *handlers.SessionHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  handlers.NewHealthHandler(),
		Auth:    handlers.NewAuthHandler(serviceset.Auth),
		Package: handlers.NewPackageHandler(log, serviceset.Packages),
		Content: handlers.NewContentHandler(log, serviceset.Packages),
		Session: handlers.NewSessionHandler(log, serviceset.Sessions),
	}
}
