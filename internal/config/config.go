// Package config holds the runtime configuration read from the environment
// and the fixed tuning constants of the service.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	DatabaseURL string
	// RedisURL is optional; without it sessions, guards and events stay in process.
	RedisURL   string
	JWTSecret  string
	SessionTTL time.Duration
	// StorageDriver is "postgres" or "memory".
	StorageDriver       string
	DBLogLevel          string
	UploadDir           string
	MaxUploadMB         int64
	AllowRejectedStatus bool
	TelegramBotToken    string
	TelegramOfficialsID int64
	SeedDemoData        bool
	FrontendURL         string
}

func Load() *Config {
	driver := strings.ToLower(getEnv("STORAGE_DRIVER", "postgres"))
	return &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", "host=localhost user=user password=password dbname=cleantrackdb port=5432 sslmode=disable"),
		RedisURL:            getEnv("REDIS_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTTL:          getDuration("SESSION_TTL", 72*time.Hour),
		StorageDriver:       driver,
		DBLogLevel:          getEnv("DB_LOG_LEVEL", "warn"),
		UploadDir:           getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadMB:         int64(getInt("MAX_UPLOAD_MB", DefaultMaxUploadMB)),
		AllowRejectedStatus: getBool("ALLOW_REJECTED_STATUS", true),
		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramOfficialsID: int64(getInt("TELEGRAM_OFFICIALS_CHAT_ID", 0)),
		SeedDemoData:        getBool("SEED_DEMO_DATA", driver == "memory"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getBool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using %t", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("WARNING: Invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return v
}
