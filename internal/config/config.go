package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Ledger   BackendConfig
	Advisory BackendConfig
	Cockpit  CockpitConfig
	Upstream UpstreamConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// BackendConfig points at one of the external backends
type BackendConfig struct {
	BaseURL string
}

// CockpitConfig holds the dashboard defaults
type CockpitConfig struct {
	DefaultEntityID string
}

// UpstreamConfig configures the outbound HTTP clients.
// A zero Timeout means requests never time out.
type UpstreamConfig struct {
	Timeout time.Duration
}

// StorageConfig selects where per-client session state is persisted
type StorageConfig struct {
	Driver string // "memory", "postgres" or "redis"
}

// DatabaseConfig holds the database configuration
type DatabaseConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	DBName     string
	SSLMode    string
	TestDBName string // Separate database for testing
}

// RedisConfig holds the redis configuration
type RedisConfig struct {
	Addr   string
	Prefix string
}

// AuthConfig holds the secret used to sign client cookies
type AuthConfig struct {
	CookieSecret string
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level string
}

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
	)
}

// LoadConfig loads the configuration from a .env file, if any, and environment variables
func LoadConfig() *Config {
	// A missing .env file is fine, the environment still applies
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Ledger: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("CRANE_LEDGER_BASE_URL", "http://localhost:3000"), "/"),
		},
		Advisory: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("AI_CFO_BASE_URL", "http://localhost:4000"), "/"),
		},
		Cockpit: CockpitConfig{
			DefaultEntityID: getEnv("EZYCRANE_ENTITY_ID", "94ea44d8-c8ca-43b2-8a78-8eabb5639618"),
		},
		Upstream: UpstreamConfig{
			Timeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", DriverMemory),
		},
		Database: DatabaseConfig{
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvAsInt("DB_PORT", 5432),
			Username:   getEnv("DB_USERNAME", "postgres"),
			Password:   getEnv("DB_PASSWORD", "password"),
			DBName:     getEnv("DB_NAME", "cockpit"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			TestDBName: getEnv("TEST_DB_NAME", "cockpit_test"),
		},
		Redis: RedisConfig{
			Addr:   getEnv("REDIS_ADDR", "localhost:6379"),
			Prefix: getEnv("REDIS_PREFIX", "cockpit:client:"),
		},
		Auth: AuthConfig{
			CookieSecret: getEnv("COOKIE_SECRET", "change-me-cookie-secret"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Helper functions to read environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
