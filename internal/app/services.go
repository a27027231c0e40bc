package app

import (
	"gorm.io/gorm"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/scorm"
	"github.com/coursekit/scormlite-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Packages services.PackageStore
	Sessions services.SessionService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) Services {
	log.Info("Wiring services...")
	fallback := services.NewFallbackCatalog(cfg.FallbackCatalogPath, log)
	packages := services.NewPackageStore(db, log, reposet.Package, reposet.PackageFile, fallback)
	return Services{
		Auth: services.NewAuthService(
			log,
			reposet.User,
			reposet.UserToken,
			cfg.JWTSecretKey,
			cfg.AccessTokenTTL,
			cfg.RefreshTokenTTL,
		),
		Packages: packages,
		Sessions: services.NewSessionService(log, packages, scorm.NewBridge()),
	}
}
