package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	SourceHive   = "hive"
	SourceMirror = "mirror"
)

type Config struct {
	Port          string
	SessionSecret string
	TemplatesDir  string
	// Discussion source
	Source      string
	HiveAPIURL  string
	DatabaseURL string
	FetchTTL    time.Duration
	// Writes
	RelayURL       string
	ReconcileDelay time.Duration
	// Thread rendering
	MaxDepth   int
	TruncateAt int
	// Interaction state; in memory when empty
	RedisURL    string
	StateTTL    time.Duration
	MaxSessions int
}

// Load reads .env if present, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}
	return Config{
		Port:           getenv("PORT", "8080"),
		SessionSecret:  getenv("SESSION_SECRET", "secret_key_change_me"),
		TemplatesDir:   getenv("TEMPLATES_DIR", "./web/templates"),
		Source:         getenv("DISCUSSION_SOURCE", SourceHive),
		HiveAPIURL:     getenv("HIVE_API_URL", "https://api.hive.blog"),
		DatabaseURL:    getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=threadkit port=5432 sslmode=disable"),
		FetchTTL:       getenvDuration("FETCH_CACHE_TTL", 15*time.Second),
		RelayURL:       getenv("RELAY_URL", "http://localhost:8090"),
		ReconcileDelay: getenvDuration("RECONCILE_DELAY", 3*time.Second),
		MaxDepth:       getenvInt("MAX_DEPTH", 4),
		TruncateAt:     getenvInt("TRUNCATE_AT", 400),
		RedisURL:       getenv("REDIS_URL", ""),
		StateTTL:       getenvDuration("STATE_TTL", 24*time.Hour),
		MaxSessions:    getenvInt("MAX_SESSIONS", 1000),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getenvDuration accepts Go durations ("3s") or plain seconds.
func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
