package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis (lobby broadcast)
	RedisURL string

	// Security
	JWTSecret  string
	AdminToken string

	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Rate Limiting
	RateLimitPerUser int
	RateLimitPerIP   int

	// Timers (milliseconds)
	QueueIdleTimeoutMs int64
	TurnTimeoutMs      int64
	DisconnectMarkMs   int64
	DisconnectGraceMs  int64
	PresenceFreshMs    int64
	PresenceThrottleMs int64
	PrePlayStaleMs     int64
	GroupIdleStaleMs   int64
	CardRevealDelayMs  int64
	ReconnectWindowMs  int64
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "digitduel"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "digitduel_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret:  getEnv("JWT_SECRET_KEY", ""),
		AdminToken: getEnv("ADMIN_TOKEN", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RateLimitPerUser: getEnvInt("RATE_LIMIT_PER_USER", 20),
		RateLimitPerIP:   getEnvInt("RATE_LIMIT_PER_IP", 100),

		QueueIdleTimeoutMs: getEnvInt64("QUEUE_IDLE_TIMEOUT_MS", 45000),
		TurnTimeoutMs:      getEnvInt64("TURN_TIMEOUT_MS", 30000),
		DisconnectMarkMs:   getEnvInt64("DISCONNECT_MARK_MS", 12000),
		DisconnectGraceMs:  getEnvInt64("DISCONNECT_GRACE_MS", 60000),
		PresenceFreshMs:    getEnvInt64("PRESENCE_FRESH_MS", 20000),
		PresenceThrottleMs: getEnvInt64("PRESENCE_THROTTLE_MS", 2500),
		PrePlayStaleMs:     getEnvInt64("PRE_PLAY_STALE_MS", 180000),
		GroupIdleStaleMs:   getEnvInt64("GROUP_IDLE_STALE_MS", 600000),
		CardRevealDelayMs:  getEnvInt64("CARD_REVEAL_DELAY_MS", 5000),
		ReconnectWindowMs:  getEnvInt64("RECONNECT_WINDOW_MS", 60000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters")
	}
	return nil
}

func (c *Config) ValidateProductionSecurity() error {
	if c.AppEnv != "production" {
		return nil
	}

	if c.DBSSLMode != "require" {
		return fmt.Errorf("DB_SSLMODE must be 'require' in production")
	}
	if c.JWTSecret == "your_jwt_secret_minimum_32_chars_here_change_this" {
		return fmt.Errorf("JWT_SECRET_KEY must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) QueueIdleTimeout() time.Duration {
	return time.Duration(c.QueueIdleTimeoutMs) * time.Millisecond
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}
