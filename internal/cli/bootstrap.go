// Package cli holds the cobra commands of the hospital-journey binary.
package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"hospital-journey-server/internal/config"
	"hospital-journey-server/internal/models"
	"hospital-journey-server/internal/observability"
)

// loadConfig reads .env when present, then the environment.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	observability.InitLogger(cfg.ServiceName, cfg.Environment, cfg.LogLevel)
	return cfg, nil
}

// openDatabase connects and, when migrate is set, brings the schema up to date.
func openDatabase(cfg *config.Config, migrate bool) (*gorm.DB, error) {
	dbConfig := models.DatabaseConfig{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Debug:  cfg.LogLevel == "debug",
	}

	open := models.OpenDB
	if migrate {
		open = models.InitDB
	}
	db, err := open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	log.Debug().Str("driver", dbConfig.Driver).Bool("migrated", migrate).Msg("database ready")
	return db, nil
}
