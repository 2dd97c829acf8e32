package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server configuration, read from the environment
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	RedisAddr string

	JWTSecret     string
	AdminUsername string
	AdminPassword string

	// TypingDelay is the simulated typing pause before each bot message.
	// SettleDelay is the pause between feedback and allowing advance.
	TypingDelay time.Duration
	SettleDelay time.Duration

	// SnapshotTTL bounds how long an abandoned conversation stays resumable in Redis
	SnapshotTTL time.Duration
}

// Load reads configuration from the environment with development defaults
func Load() *Config {
	return &Config{
		Port:      getEnvOrDefault("PORT", "8080"),
		MongoURI:  getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:   getEnvOrDefault("MONGO_DB", "journeybot"),
		RedisAddr: getEnvOrDefault("REDIS_URI", "localhost:6379"),

		JWTSecret:     getEnvOrDefault("JWT_SECRET", "super-secret-key-change-in-production"),
		AdminUsername: getEnvOrDefault("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnvOrDefault("ADMIN_PASSWORD", "password123"),

		TypingDelay: getEnvMillis("TYPING_DELAY_MS", 900),
		SettleDelay: getEnvMillis("SETTLE_DELAY_MS", 1500),
		SnapshotTTL: getEnvMillis("SNAPSHOT_TTL_MS", int((24 * time.Hour).Milliseconds())),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvMillis(key string, defaultMS int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return time.Duration(defaultMS) * time.Millisecond
}
