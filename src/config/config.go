package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DatabaseURL    string
	LogLevel       string
	ReadOnly       bool
	AllowedOrigins []string

	// Preview scan limits, operator-tunable, never per rule.
	PreviewMaxResults int
	PreviewMaxScanned int
}

func Load() Config {
	// Load .env file if present
	_ = godotenv.Load()

	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		ReadOnly:          getEnv("READ_ONLY", "false") == "true",
		AllowedOrigins:    splitEnv(getEnv("ALLOWED_ORIGINS", "")),
		PreviewMaxResults: getEnvInt("PREVIEW_MAX_RESULTS", 50),
		PreviewMaxScanned: getEnvInt("PREVIEW_MAX_SCANNED", 1000),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		log.Printf("WARN: invalid %s=%q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func splitEnv(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
