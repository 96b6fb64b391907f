package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Security
	JWTSecret    string
	PhoneHashKey string
	PhoneEncKey  string

	// Application
	AppEnv   string
	AppPort  string
	LogLevel string

	// Friend discovery
	DefaultCountryCode        string
	DiscoveryTokenBytes       int
	DiscoveryTokenMaxAttempts int
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "proxima"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "proxima_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:    getEnv("JWT_SECRET_KEY", ""),
		PhoneHashKey: getEnv("PHONE_HASH_KEY", ""),
		PhoneEncKey:  getEnv("PHONE_ENC_KEY", ""),

		AppEnv:   getEnv("APP_ENV", "development"),
		AppPort:  getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DefaultCountryCode:        getEnv("DEFAULT_COUNTRY_CODE", "82"),
		DiscoveryTokenBytes:       getEnvInt("DISCOVERY_TOKEN_BYTES", 4),
		DiscoveryTokenMaxAttempts: getEnvInt("DISCOVERY_TOKEN_MAX_ATTEMPTS", 5),
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
	if c.PhoneHashKey == "" {
		return fmt.Errorf("PHONE_HASH_KEY is required")
	}
	if len(c.PhoneEncKey) != 32 {
		return fmt.Errorf("PHONE_ENC_KEY must be exactly 32 bytes")
	}
	if c.DiscoveryTokenBytes < 4 {
		return fmt.Errorf("DISCOVERY_TOKEN_BYTES must be at least 4")
	}
	if c.DiscoveryTokenMaxAttempts < 1 {
		return fmt.Errorf("DISCOVERY_TOKEN_MAX_ATTEMPTS must be at least 1")
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
	if c.PhoneEncKey == "your_phone_key_must_be_32_bytes!" {
		return fmt.Errorf("PHONE_ENC_KEY must be changed from default in production")
	}

	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
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
