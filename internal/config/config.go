package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for our application
type Config struct {
	Port         string
	Origin       string
	Environment  string
	LogLevel     string
	ServiceName  string
	JWTSecret    string
	Database     DatabaseConfig
	Redis        RedisConfig
	PollInterval time.Duration
	ShareCodeTTL time.Duration
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// RedisConfig holds the journey view cache connection
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns the Redis address
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	dbConfig := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "mysql"),
		Host:     getEnv("DB_HOST", "localhost"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "journeys"),
	}

	switch dbConfig.Driver {
	case "mysql":
		dbConfig.Port = getEnv("DB_PORT", "3306")
		dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)
	case "postgres":
		dbConfig.Port = getEnv("DB_PORT", "5432")
		dbConfig.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbConfig.Host, dbConfig.Port, dbConfig.Username, dbConfig.Password, dbConfig.Name)
	case "sqlite":
		dbConfig.DSN = "file:" + dbConfig.Name + ".db?_foreign_keys=on"
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want mysql, postgres or sqlite", dbConfig.Driver)
	}
	// An explicit DSN wins over the assembled one
	if dsn := getEnv("DB_DSN", ""); dsn != "" {
		dbConfig.DSN = dsn
	}

	redisEnabled, err := strconv.ParseBool(getEnv("REDIS_ENABLED", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_ENABLED: %w", err)
	}
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	pollSeconds, err := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: %w", err)
	}
	if pollSeconds <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: must be positive, got %d", pollSeconds)
	}

	shareTTLHours, err := strconv.Atoi(getEnv("SHARE_CODE_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHARE_CODE_TTL_HOURS: %w", err)
	}
	if shareTTLHours <= 0 {
		return nil, fmt.Errorf("invalid SHARE_CODE_TTL_HOURS: must be positive, got %d", shareTTLHours)
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("NODE_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ServiceName: getEnv("OTEL_SERVICE_NAME", "hospital-journey"),
		JWTSecret:   getEnv("JWT_SECRET", "default_jwt_secret"),
		Database:    dbConfig,
		Redis: RedisConfig{
			Enabled:  redisEnabled,
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		PollInterval: time.Duration(pollSeconds) * time.Second,
		ShareCodeTTL: time.Duration(shareTTLHours) * time.Hour,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
