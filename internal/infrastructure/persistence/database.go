package persistence

import (
	"fmt"
	"time"

	"github.com/covidtrack/registry/internal/infrastructure/config"
	"github.com/covidtrack/registry/internal/infrastructure/logger"
	"github.com/covidtrack/registry/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// NewDatabase opens the database selected by storage.driver (sqlite or
// postgres), applies pool settings and migrates the patient table.
func NewDatabase(cfg *config.Config, zl *zap.Logger) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.Storage.Path)
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.Database.DSN())
	default:
		return nil, fmt.Errorf("storage driver %q is not a database", cfg.Storage.Driver)
	}

	db, err := Open(dialector, zl, cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	if cfg.Storage.Driver == config.DriverPostgres {
		sqlDB, err := db.DB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Open opens a gorm connection on the given dialector with statement logging
// routed to zl
func Open(dialector gorm.Dialector, zl *zap.Logger, level string) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.NewGormLogger(zl, logger.MapGormLogLevel(level)),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Database{DB: db}, nil
}

// Migrate creates or updates the tables of all persistence models
func (d *Database) Migrate() error {
	if err := d.DB.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}
