package repository

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the Postgres connection pool. Error translation is enabled
// so unique-constraint violations surface as gorm.ErrDuplicatedKey.
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// Repositories bundles the per-entity repositories over one shared handle.
type Repositories struct {
	DB        *gorm.DB
	Movie     *MovieRepository
	Watchlist *WatchlistRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:        db,
		Movie:     NewMovieRepository(db),
		Watchlist: NewWatchlistRepository(db),
	}
}
