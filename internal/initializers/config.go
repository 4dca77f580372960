package initializers

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Environment   string
	LogLevel      string
	Port          string
	MetricsPort   string
	PgDSN         string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	BaseURL       string
	SMTPHost      string
	SMTPPort      int
	EmailUser     string
	EmailPass     string
	AdminEmail    string
	AdminPassword string
	NotifyTimeout time.Duration
	InviteTTL     time.Duration
}

// LoadConfig - обязательные переменные без значения валят старт сразу
func LoadConfig() Config {
	cfg := Config{
		Environment:   getenv("ENVIRONMENT", "LOCAL"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Port:          getenv("PORT", "8080"),
		MetricsPort:   getenv("METRICS_PORT", "9090"),
		PgDSN:         os.Getenv("PG_DSN"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		BaseURL:       getenv("BASE_URL", "http://localhost:3000"),
		SMTPHost:      getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      getenvInt("SMTP_PORT", 587),
		EmailUser:     os.Getenv("EMAIL_USER"),
		EmailPass:     os.Getenv("EMAIL_PASS"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		NotifyTimeout: getenvDuration("NOTIFY_TIMEOUT", 15*time.Second),
		InviteTTL:     getenvDuration("INVITE_CACHE_TTL", 24*time.Hour),
	}

	if cfg.PgDSN == "" {
		log.Fatalf("PG_DSN environment variable not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatalf("JWT_SECRET environment variable not set")
	}

	return cfg
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
