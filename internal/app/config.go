package app

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coursekit/scormlite-backend/internal/platform/logger"
	"github.com/coursekit/scormlite-backend/internal/utils"
)

type Config struct {
	Port                string
	Environment         string
	JWTSecretKey        string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	FallbackCatalogPath string
}

// fileConfig is the optional YAML overlay. Values present in the file win
// over the environment.
type fileConfig struct {
	Port                string `yaml:"port"`
	Environment         string `yaml:"environment"`
	JWTSecretKey        string `yaml:"jwt_secret_key"`
	AccessTokenTTL      int    `yaml:"access_token_ttl_seconds"`
	RefreshTokenTTL     int    `yaml:"refresh_token_ttl_seconds"`
	FallbackCatalogPath string `yaml:"fallback_catalog_path"`
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:                utils.GetEnv("PORT", "8080", log),
		Environment:         utils.GetEnv("ENVIRONMENT", "development", log),
		JWTSecretKey:        utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:      time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTokenTTL:     time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)) * time.Second,
		FallbackCatalogPath: utils.GetEnv("FALLBACK_CATALOG_PATH", "data/fallback_catalog.json", log),
	}

	path := utils.GetEnv("CONFIG_FILE", "", log)
	if path == "" {
		return cfg
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Warn("config file unreadable, using environment only", "path", path, "error", err)
		return cfg
	}
	var overlay fileConfig
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		log.Warn("config file unparsable, using environment only", "path", path, "error", err)
		return cfg
	}
	if overlay.Port != "" {
		cfg.Port = overlay.Port
	}
	if overlay.Environment != "" {
		cfg.Environment = overlay.Environment
	}
	if overlay.JWTSecretKey != "" {
		cfg.JWTSecretKey = overlay.JWTSecretKey
	}
	if overlay.AccessTokenTTL > 0 {
		cfg.AccessTokenTTL = time.Duration(overlay.AccessTokenTTL) * time.Second
	}
	if overlay.RefreshTokenTTL > 0 {
		cfg.RefreshTokenTTL = time.Duration(overlay.RefreshTokenTTL) * time.Second
	}
	if overlay.FallbackCatalogPath != "" {
		cfg.FallbackCatalogPath = overlay.FallbackCatalogPath
	}
	return cfg
}
