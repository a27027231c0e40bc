package app

import (
	"gorm.io/gorm"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/repos"
)

type Repos struct {
	User        repos.UserRepo
	UserToken   repos.UserTokenRepo
	Package     repos.PackageRepo
	PackageFile repos.PackageFileRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Package:     repos.NewPackageRepo(db, log),
		PackageFile: repos.NewPackageFileRepo(db, log),
	}
}
