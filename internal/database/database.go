package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// pragmas applied to every connection. The backing files are tiny and written
// in one transaction, so durability matters more than throughput.
var pragmas = []string{
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = FULL;",
	"PRAGMA temp_store = MEMORY;",
}

// OpenSqlite opens the SQLite database at path, creating the file if needed.
func OpenSqlite(path string, log zerolog.Logger) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite file path not set")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        500,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			_ = Close(db)
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	log.Debug().Str("path", path).Msg("Opened SQLite DB")
	return db, nil
}

// UserVersion reads PRAGMA user_version.
func UserVersion(db *gorm.DB) (int, error) {
	var version int
	if err := db.Raw("PRAGMA user_version;").Scan(&version).Error; err != nil {
		return 0, fmt.Errorf("reading user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion writes PRAGMA user_version.
func SetUserVersion(db *gorm.DB, version int) error {
	if err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", version)).Error; err != nil {
		return fmt.Errorf("setting user_version: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
