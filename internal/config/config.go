// Package config provides configuration management for the advisory engine.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Advisory AdvisoryConfig
	Chain    ChainConfig
	Cache    CacheConfig
	Refresh  RefreshConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
}

// AdvisoryConfig holds advisory service client configuration
type AdvisoryConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	HealthTimeout  time.Duration
	RequestsPerSec float64
}

// ChainConfig holds on-chain read configuration
type ChainConfig struct {
	RPCURL        string
	VaultAddress  string
	AssetDecimals int
	ReadTimeout   time.Duration
}

// CacheConfig holds dashboard cache configuration
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// RefreshConfig holds periodic refresh configuration
type RefreshConfig struct {
	Interval time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Advisory: AdvisoryConfig{
			BaseURL:        getEnv("ADVISORY_BASE_URL", "http://localhost:8001"),
			RequestTimeout: getEnvAsDuration("ADVISORY_TIMEOUT", 10*time.Second),
			HealthTimeout:  getEnvAsDuration("ADVISORY_HEALTH_TIMEOUT", 5*time.Second),
			RequestsPerSec: getEnvAsFloat("ADVISORY_REQUESTS_PER_SEC", 5.0),
		},
		Chain: ChainConfig{
			RPCURL:        getEnv("CHAIN_RPC_URL", "http://localhost:8545"),
			VaultAddress:  getEnv("VAULT_ADDRESS", ""),
			AssetDecimals: getEnvAsInt("ASSET_DECIMALS", 18),
			ReadTimeout:   getEnvAsDuration("CHAIN_READ_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Enabled:  getEnvAsBool("CACHE_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      getEnvAsDuration("CACHE_TTL", 20*time.Second),
		},
		Refresh: RefreshConfig{
			Interval: getEnvAsDuration("REFRESH_INTERVAL", 30*time.Second),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
