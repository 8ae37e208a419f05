package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the VideoTube backend service.
type Config struct {
	AppPort  int
	LogLevel string

	MongoURI      string
	MongoDatabase string

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration

	ObjectStore ObjectStoreConfig

	AuthRateLimit  int
	AuthRateWindow time.Duration

	CleanupQueueSize int
	CleanupWorkers   int

	StatsCacheTTL time.Duration
}

// ObjectStoreConfig describes the S3-compatible media host uploads are
// forwarded to.
type ObjectStoreConfig struct {
	Region        string
	Endpoint      string
	Bucket        string
	PublicBaseURL string
}

// Load reads configuration from environment variables, applying sensible defaults
// for local development while allowing overrides through environment variables.
// A .env file in the working directory is honoured when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppPort:  getInt("VIDEOTUBE_PORT", 8000),
		LogLevel: getString("VIDEOTUBE_LOG_LEVEL", "info"),

		MongoURI:      getString("VIDEOTUBE_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getString("VIDEOTUBE_MONGO_DB", "videotube"),

		AccessTokenSecret:  getString("VIDEOTUBE_ACCESS_TOKEN_SECRET", "dev-access-secret"),
		AccessTokenTTL:     getDuration("VIDEOTUBE_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenSecret: getString("VIDEOTUBE_REFRESH_TOKEN_SECRET", "dev-refresh-secret"),
		RefreshTokenTTL:    getDuration("VIDEOTUBE_REFRESH_TOKEN_TTL", 10*24*time.Hour),

		ObjectStore: ObjectStoreConfig{
			Region:        getString("VIDEOTUBE_S3_REGION", "us-east-1"),
			Endpoint:      getString("VIDEOTUBE_S3_ENDPOINT", ""),
			Bucket:        getString("VIDEOTUBE_S3_BUCKET", "videotube-media"),
			PublicBaseURL: getString("VIDEOTUBE_S3_PUBLIC_BASE_URL", ""),
		},

		AuthRateLimit:  getInt("VIDEOTUBE_AUTH_RATE_LIMIT", 10),
		AuthRateWindow: getDuration("VIDEOTUBE_AUTH_RATE_WINDOW", time.Minute),

		CleanupQueueSize: getInt("VIDEOTUBE_CLEANUP_QUEUE_SIZE", 64),
		CleanupWorkers:   getInt("VIDEOTUBE_CLEANUP_WORKERS", 2),

		StatsCacheTTL: getDuration("VIDEOTUBE_STATS_CACHE_TTL", 30*time.Second),
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
