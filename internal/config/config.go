// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage drivers.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
	StorageSQL   = "sql"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Env               string        `mapstructure:"APP_ENV"`
	Port              string        `mapstructure:"PORT"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	StorageDriver     string        `mapstructure:"STORAGE_DRIVER"`
	StorageKey        string        `mapstructure:"STORAGE_KEY"`
	StorageDir        string        `mapstructure:"STORAGE_DIR"`
	RedisURL          string        `mapstructure:"REDIS_URL"`
	DBDriver          string        `mapstructure:"DB_DRIVER"`
	DBDSN             string        `mapstructure:"DB_DSN"`
	WatchdogInterval  time.Duration `mapstructure:"WATCHDOG_INTERVAL"`
	AllowedOrigins    string        `mapstructure:"ALLOWED_ORIGINS"`
	FeatureFlags      string        `mapstructure:"FEATURE_FLAGS"`
	SeedDefaultAdmin  bool          `mapstructure:"SEED_DEFAULT_ADMIN"`
	DefaultAdminEmail string        `mapstructure:"DEFAULT_ADMIN_EMAIL"`
	AMQPURL           string        `mapstructure:"AMQP_URL"`
	TracingEnabled    bool          `mapstructure:"TRACING_ENABLED"`
	TracingExporter   string        `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint      string        `mapstructure:"OTLP_ENDPOINT"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	// The base config file is optional.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SetDefaults registers the development defaults.
func SetDefaults() {
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PORT", "8375")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("STORAGE_DRIVER", StorageFile)
	viper.SetDefault("STORAGE_KEY", "skillSwapData")
	viper.SetDefault("STORAGE_DIR", "data")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("DB_DRIVER", "sqlite")
	viper.SetDefault("DB_DSN", "skillswap.db")
	viper.SetDefault("WATCHDOG_INTERVAL", "3s")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173")
	viper.SetDefault("FEATURE_FLAGS", "demo_login=on,reciprocal_hints=on")
	viper.SetDefault("SEED_DEFAULT_ADMIN", true)
	viper.SetDefault("DEFAULT_ADMIN_EMAIL", "admin@skillswap.com")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
}

func (c *Config) normalize() {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	c.DefaultAdminEmail = strings.ToLower(strings.TrimSpace(c.DefaultAdminEmail))
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and consistent.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.StorageKey == "" {
		return errors.New("STORAGE_KEY is required")
	}
	if c.WatchdogInterval <= 0 {
		return errors.New("WATCHDOG_INTERVAL must be positive")
	}

	switch c.StorageDriver {
	case StorageFile:
		if c.StorageDir == "" {
			return errors.New("STORAGE_DIR is required for the file storage driver")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis storage driver")
		}
	case StorageSQL:
		if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
			return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
		}
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required for the sql storage driver")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of file, redis, sql; got %q", c.StorageDriver)
	}

	if c.SeedDefaultAdmin && !strings.Contains(c.DefaultAdminEmail, "@") {
		return errors.New("DEFAULT_ADMIN_EMAIL must be an email address")
	}

	if c.IsProduction() {
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if strings.Contains(c.FeatureFlags, "demo_login=on") {
			log.Println("WARNING: demo_login is enabled in production.")
		}
	}

	return nil
}
