package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Server
	Port string
	Host string

	// Auth
	JWTSecret string

	// DoctorSender API
	DoctorSenderURL     string
	DoctorSenderAPIKey  string
	DoctorSenderAccount string
	DoctorSenderRPS     float64

	// OpenAI
	OpenAIAPIKey string
	OpenAIModel  string

	// Email copy generation cache
	CopyCacheSize int
	CopyCacheTTL  time.Duration

	// SendGrid (BAT reviewer notifications)
	SendGridAPIKey    string
	SendGridFromName  string
	SendGridFromEmail string

	// RabbitMQ
	AMQPURL          string
	CampaignExchange string

	// Rate limiting
	RateLimitPerMinute int
}

func Load() *Config {
	return &Config{
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret_app"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", "markops"),

		Port: getEnv("PORT", "8080"),
		Host: getEnv("HOST", "0.0.0.0"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		DoctorSenderURL:     getEnv("DOCTORSENDER_URL", "https://api.doctorsender.com"),
		DoctorSenderAPIKey:  getEnv("DOCTORSENDER_API_KEY", ""),
		DoctorSenderAccount: getEnv("DOCTORSENDER_ACCOUNT", ""),
		DoctorSenderRPS:     getEnvFloat("DOCTORSENDER_RPS", 2.0),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		CopyCacheSize: getEnvInt("COPY_CACHE_SIZE", 256),
		CopyCacheTTL:  getEnvDuration("COPY_CACHE_TTL", 24*time.Hour),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Campaign Dashboard"),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@example.com"),

		AMQPURL:          getEnv("AMQP_URL", ""),
		CampaignExchange: getEnv("CAMPAIGN_EXCHANGE", "campaign-events"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
