package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	JWTSecret string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	S3Region     string
	S3Bucket     string
	S3AccessKey  string
	S3SecretKey  string
	S3Endpoint   string
	S3PublicBase string

	// Free-tier messaging cap. Zero disables quota enforcement.
	QuotaLimit  int
	QuotaWindow time.Duration

	// Webhook that receives new-message email notifications. Empty disables it.
	NotifyWebhookURL string
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:          getEnv("APP_PORT", "8080"),
		AppMode:          getEnv("APP_MODE", "debug"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "producer_chat"),
		DBPort:           getEnv("DB_PORT", "5432"),
		JWTSecret:        getEnv("JWT_SECRET", "change-me"),
		RedisHost:        getEnv("REDIS_HOST", "localhost"),
		RedisPort:        getEnv("REDIS_PORT", "6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		S3Region:         getEnv("S3_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3PublicBase:     getEnv("S3_PUBLIC_BASE", ""),
		QuotaLimit:       getEnvAsInt("MESSAGE_QUOTA_LIMIT", 0),
		QuotaWindow:      getEnvAsDuration("MESSAGE_QUOTA_WINDOW", 24*time.Hour),
		NotifyWebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
