package service

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/user/reelist/internal/config"
	"github.com/user/reelist/internal/model"
	"github.com/user/reelist/internal/repository"
)

func newTestRepos(t *testing.T) *repository.Repositories {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Movie{}, &model.WatchlistItem{}))

	return repository.NewRepositories(db)
}

// newTestConfig points both providers at the given test server URL.
func newTestConfig(providerURL string) *config.Config {
	return &config.Config{
		Env:             "test",
		TMDBBaseURL:     providerURL,
		TMDBAPIKey:      "tmdb-test-key",
		OMDBBaseURL:     providerURL,
		OMDBAPIKey:      "omdb-test-key",
		ProviderTimeout: 5 * time.Second,
	}
}

func newTestCatalog(t *testing.T, repos *repository.Repositories, providerURL string) *CatalogService {
	t.Helper()
	cfg := newTestConfig(providerURL)
	return NewCatalogService(repos.Movie, NewTMDBClient(cfg), NewOMDBClient(cfg))
}
