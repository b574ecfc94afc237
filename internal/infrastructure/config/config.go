package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerAddress   string
	ShutdownTimeout time.Duration

	// Persistence substrate for statistics and the offline cache
	DBDriver string // sqlite, postgres or mysql
	DBDSN    string

	// Site root holding data/catalog.json: a directory path or an http(s) base URL
	DataSource   string
	CacheVersion string // bump to invalidate cached datasets
	WarmCache    bool
	WarmWorkers  int

	CORSOrigins []string
	WebDir      string // optional static client served at /
	DefaultMode string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()
	return &Config{
		ServerAddress:   getenvDefault("SERVER_ADDRESS", ":8080"),
		ShutdownTimeout: mustGetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DBDriver:        getenvDefault("DB_DRIVER", "sqlite"),
		DBDSN:           getenvDefault("DB_DSN", "drill.db"),
		DataSource:      getenvDefault("DATA_SOURCE", "."),
		CacheVersion:    getenvDefault("CACHE_VERSION", "v1"),
		WarmCache:       getenvBool("WARM_CACHE", false),
		WarmWorkers:     mustGetInt("WARM_WORKERS", 4),
		CORSOrigins:     getenvCSV("CORS_ORIGINS", "http://localhost:3000"),
		WebDir:          os.Getenv("WEB_DIR"),
		DefaultMode:     getenvDefault("DEFAULT_MODE", "order"),
	}
}

func mustGetDuration(k string, fallback time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("config: %s=%q is not a valid duration: %v", k, v, err)
	}
	return d
}

func mustGetInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Fatalf("config: %s=%q is not a positive integer", k, v)
	}
	return n
}

func getenvDefault(k, fallback string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return fallback
	}
}

func getenvCSV(k, fallback string) []string {
	parts := strings.Split(getenvDefault(k, fallback), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
