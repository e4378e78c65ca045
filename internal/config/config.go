package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration for the catalog and watchlist
// services. Provider base URLs are part of the config so tests can point
// the clients at a substitute endpoint.
type Config struct {
	Env             string
	DatabaseURL     string
	TMDBBaseURL     string
	TMDBAPIKey      string
	OMDBBaseURL     string
	OMDBAPIKey      string
	ProviderTimeout time.Duration
}

// Load reads configuration from the environment. A .env file is used when
// present; deployed environments rely on the process environment.
func Load() *Config {
	_ = godotenv.Load()

	dbUser := getEnv("DB_USER", "postgres")
	dbPass := getEnv("DB_PASSWORD", "postgres")
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbName := getEnv("DB_NAME", "reelist")
	dbSSL := getEnv("DB_SSLMODE", "disable")

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbUser, dbPass, dbHost, dbPort, dbName, dbSSL)

	timeoutSecs, err := strconv.Atoi(getEnv("PROVIDER_TIMEOUT_SECONDS", "10"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 10
	}

	return &Config{
		Env:             getEnv("APP_ENV", "development"),
		DatabaseURL:     getEnv("DATABASE_URL", dbURL),
		TMDBBaseURL:     getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBAPIKey:      getEnv("TMDB_API_KEY", ""),
		OMDBBaseURL:     getEnv("OMDB_BASE_URL", "http://www.omdbapi.com"),
		OMDBAPIKey:      getEnv("OMDB_API_KEY", ""),
		ProviderTimeout: time.Duration(timeoutSecs) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
