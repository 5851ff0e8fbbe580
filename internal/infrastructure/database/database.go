package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"device-license.backend/internal/config"
	"device-license.backend/internal/infrastructure/models"
)

// Open connects to the configured database. TranslateError is always on so
// repositories can detect unique violations through gorm.ErrDuplicatedKey.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		PrepareStmt:    false,
		TranslateError: true,
	}

	switch cfg.Driver {
	case "", "postgres":
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.URL(),
			PreferSimpleProtocol: true,
		}), gormCfg)
	case "sqlite":
		dsn := cfg.SQLitePath
		if dsn == "" {
			dsn = "./data/licenses.db"
		}
		if !strings.HasPrefix(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.AuthorizationCode{},
		&models.SoftwareAuthorization{},
		&models.AccessLog{},
		&models.Software{},
	)
}
