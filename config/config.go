package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Trends    TrendsConfig    `mapstructure:"trends"`
	Retention RetentionConfig `mapstructure:"retention"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AuthConfig holds service-to-service authentication configuration
type AuthConfig struct {
	InternalAPIKey string `mapstructure:"internal_api_key"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// TrendsConfig tunes the trend query engine
type TrendsConfig struct {
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	CompareConcurrency int           `mapstructure:"compare_concurrency"`
}

// RetentionConfig holds snapshot retention configuration
type RetentionConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Window        time.Duration `mapstructure:"window"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file
	if err := loadEnvFile(); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("METRICS_SERVICE")

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found in the usual locations
func loadEnvFile() error {
	envPaths := []string{".", "./config"}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			// Remove quotes if present
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Auth
	v.BindEnv("auth.internal_api_key", "INTERNAL_API_KEY")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Rate limit defaults
	v.SetDefault("rate_limit.requests_per_second", 50)
	v.SetDefault("rate_limit.burst_size", 100)

	// Trend engine defaults
	v.SetDefault("trends.cache_ttl", 5*time.Minute)
	v.SetDefault("trends.compare_concurrency", 8)

	// Retention defaults: queries reach back 365 days, keep a margin
	v.SetDefault("retention.sweep_interval", 6*time.Hour)
	v.SetDefault("retention.window", 400*24*time.Hour)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
