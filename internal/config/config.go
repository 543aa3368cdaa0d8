package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// CORS configuration
	CORS CORSConfig

	// Security configuration
	Security SecurityConfig

	// Onboarding workflow configuration
	Onboarding OnboardingConfig

	// Upload storage configuration
	Uploads UploadConfig

	// Mail gateway configuration
	Mail MailConfig

	// Notification worker configuration
	Notifications NotificationConfig

	// Scheduled job configuration
	Cron CronConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds session token configuration
type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
	Issuer      string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost       int
	EnableRequestLog bool
	EnableAuditLog   bool
}

// OnboardingConfig holds workflow knobs
type OnboardingConfig struct {
	OfferTokenTTL      time.Duration
	TempPasswordSuffix string
	AllowReReview      bool   // allow review of pending/rejected requests, never approved ones
	ClientURL          string // frontend base URL used in email links
	ServerURL          string // public API base URL used for upload links
}

// UploadConfig holds durable upload storage configuration
type UploadConfig struct {
	Dir          string
	MaxFileBytes int64
	URLPrefix    string
}

// MailConfig holds outbound email configuration
type MailConfig struct {
	Mode     string // "dev" logs emails, "smtp" delivers them
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NotificationConfig holds dispatcher sizing
type NotificationConfig struct {
	Workers   int
	QueueSize int
}

// CronConfig holds scheduled job expressions (seconds precision)
type CronConfig struct {
	OfferSweepSchedule   string
	AuditCleanupSchedule string
	AuditRetention       time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "5000"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			TokenExpiry: getEnvAsDuration("JWT_EXPIRY", 30*24*time.Hour),
			Issuer:      getEnv("JWT_ISSUER", "onboarding-backend"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Security: SecurityConfig{
			BcryptCost:       getEnvAsInt("BCRYPT_COST", 12),
			EnableRequestLog: getEnvAsBool("ENABLE_REQUEST_LOGGING", true),
			EnableAuditLog:   getEnvAsBool("ENABLE_AUDIT_LOGGING", true),
		},
		Onboarding: OnboardingConfig{
			OfferTokenTTL:      getEnvAsDuration("OFFER_TOKEN_TTL", 7*24*time.Hour),
			TempPasswordSuffix: getEnv("TEMP_PASSWORD_SUFFIX", "@WW2025"),
			AllowReReview:      getEnvAsBool("ALLOW_REREVIEW", false),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:3000"),
			ServerURL:          getEnv("SERVER_URL", "http://localhost:5000"),
		},
		Uploads: UploadConfig{
			Dir:          getEnv("UPLOAD_DIR", "uploads"),
			MaxFileBytes: int64(getEnvAsInt("UPLOAD_MAX_FILE_BYTES", 5*1024*1024)),
			URLPrefix:    getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		},
		Mail: MailConfig{
			Mode:     getEnv("MAIL_MODE", "dev"),
			Host:     getEnv("EMAIL_HOST", ""),
			Port:     getEnvAsInt("EMAIL_PORT", 587),
			Username: getEnv("EMAIL_USER", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			From:     getEnv("EMAIL_FROM", ""),
		},
		Notifications: NotificationConfig{
			Workers:   getEnvAsInt("NOTIFY_WORKERS", 2),
			QueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
		Cron: CronConfig{
			// "0 0 * * * *" = at minute 0 of every hour
			OfferSweepSchedule: getEnv("OFFER_SWEEP_SCHEDULE", "0 0 * * * *"),
			// Sundays at 03:30
			AuditCleanupSchedule: getEnv("AUDIT_CLEANUP_SCHEDULE", "0 30 3 * * 0"),
			AuditRetention:       getEnvAsDuration("AUDIT_RETENTION", 365*24*time.Hour),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Onboarding.OfferTokenTTL <= 0 {
		return fmt.Errorf("OFFER_TOKEN_TTL must be positive")
	}

	if c.Uploads.MaxFileBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_BYTES must be positive")
	}

	switch c.Mail.Mode {
	case "dev":
	case "smtp":
		if c.Mail.Host == "" {
			return fmt.Errorf("EMAIL_HOST is required when MAIL_MODE=smtp")
		}
		if c.Mail.From == "" {
			return fmt.Errorf("EMAIL_FROM is required when MAIL_MODE=smtp")
		}
	default:
		return fmt.Errorf("invalid MAIL_MODE: %s (must be 'dev' or 'smtp')", c.Mail.Mode)
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
