package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/types"
	"github.com/coursekit/scormlite-backend/internal/utils"
)

type DatabaseService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewDatabaseService opens the primary transactional substrate. DB_DRIVER
// selects postgres (default) or sqlite; sqlite keeps single-node deployments
// and local development free of an external server.
func NewDatabaseService(log *logger.Logger) (*DatabaseService, error) {
	serviceLog := log.With("service", "DatabaseService")

	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", log))

	var (
		conn gorm.Dialector
		desc string
	)
	switch driver {
	case "sqlite":
		path := utils.GetEnv("SQLITE_PATH", "scormlite.db", log)
		conn = sqlite.Open(path)
		desc = fmt.Sprintf("sqlite %s", path)
	case "postgres":
		host := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		port := utils.GetEnv("POSTGRES_PORT", "5432", log)
		user := utils.GetEnv("POSTGRES_USER", "postgres", log)
		password := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		name := utils.GetEnv("POSTGRES_NAME", "scormlite", log)
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		conn = postgres.Open(dsn)
		desc = fmt.Sprintf("postgres %s:%s/%s", host, port, name)
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	log.Info("Connecting to database...", "target", desc)
	gdb, err := gorm.Open(conn, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("connect %s: %w", desc, err)
	}

	return &DatabaseService{db: gdb, log: serviceLog}, nil
}

func (s *DatabaseService) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Package{},
		&types.PackageFile{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *DatabaseService) DB() *gorm.DB {
	return s.db
}
