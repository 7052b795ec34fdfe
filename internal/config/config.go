package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL      string
	DBMaxConns       int
	RedisURL         string
	ServerAddr       string
	SettlementWindow time.Duration
	SSEClientBuffer  int
	MigrationsDir    string
}

// Load reads configuration from the environment, after loading .env if one
// is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "settle_hub")
		pass := getenv("POSTGRES_PASSWORD", "settle_hub_pass")
		db := getenv("POSTGRES_DB", "settle_hub")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	return &Config{
		DatabaseURL:      dsn,
		DBMaxConns:       parseInt(getenv("DB_MAX_CONNS", "16"), 16),
		RedisURL:         os.Getenv("REDIS_URL"),
		ServerAddr:       getenv("SERVER_ADDR", "0.0.0.0:8080"),
		SettlementWindow: parseDuration(getenv("SETTLEMENT_WINDOW", "24h"), 24*time.Hour),
		SSEClientBuffer:  parseInt(getenv("SSE_CLIENT_BUFFER", "100"), 100),
		MigrationsDir:    getenv("MIGRATIONS_DIR", "internal/migrations"),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}
