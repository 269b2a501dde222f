package database

import (
	"fmt"

	"run-leaderboard-service/config"
	"run-leaderboard-service/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

// Open connects with the configured driver and migrates the schema.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.URL)
	case config.DriverSQLite:
		dialector = sqliteDialector(cfg.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Driver == config.DriverSQLite {
		// SQLite allows a single writer. Serialising through one connection
		// keeps transactions from failing with SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// OpenMemory returns a migrated, private in-memory SQLite database.
func OpenMemory() (*gorm.DB, error) {
	return Open(config.DatabaseConfig{Driver: config.DriverSQLite, URL: "file::memory:"})
}

func sqliteDialector(dsn string) gorm.Dialector {
	// modernc.org/sqlite registers itself as "sqlite" and needs no cgo.
	return sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: dsn})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.UserStats{},
		&models.Map{},
		&models.MapTrack{},
		&models.MapZone{},
		&models.RunSession{},
		&models.RunSessionTimestamp{},
		&models.Run{},
		&models.RunZoneStats{},
		&models.LeaderboardGroup{},
		&models.UserMapRank{},
		&models.XPSystems{},
	)
}
