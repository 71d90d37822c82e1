package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	BackendURL  string
	LogLevel    string
	LogFormat   string
	GinMode     string
	SessionTTL  time.Duration
	MaxUploadMB int64
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:5000/api"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		GinMode:     getEnv("GIN_MODE", "release"),
		SessionTTL:  getDuration("SESSION_TTL", 30*time.Minute),
		MaxUploadMB: getInt("MAX_UPLOAD_MB", 10),
	}
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %s", key, value, defaultVal)
		return defaultVal
	}
	return d
}

func getInt(key string, defaultVal int64) int64 {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, value, defaultVal)
		return defaultVal
	}
	return n
}
