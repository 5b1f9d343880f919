package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Env:               "development",
		Port:              "8375",
		StorageDriver:     StorageFile,
		StorageKey:        "skillSwapData",
		StorageDir:        "data",
		RedisURL:          "localhost:6379",
		DBDriver:          "sqlite",
		DBDSN:             "skillswap.db",
		WatchdogInterval:  3 * time.Second,
		SeedDefaultAdmin:  true,
		DefaultAdminEmail: "admin@skillswap.com",
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"defaults", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing key", func(c *Config) { c.StorageKey = "" }, true},
		{"zero watchdog interval", func(c *Config) { c.WatchdogInterval = 0 }, true},
		{"unknown driver", func(c *Config) { c.StorageDriver = "s3" }, true},
		{"file without dir", func(c *Config) { c.StorageDir = "" }, true},
		{"redis without url", func(c *Config) { c.StorageDriver = StorageRedis; c.RedisURL = "" }, true},
		{"redis", func(c *Config) { c.StorageDriver = StorageRedis }, false},
		{"sql with postgres", func(c *Config) { c.StorageDriver = StorageSQL; c.DBDriver = "postgres" }, false},
		{"sql with mysql", func(c *Config) { c.StorageDriver = StorageSQL; c.DBDriver = "mysql" }, true},
		{"sql without dsn", func(c *Config) { c.StorageDriver = StorageSQL; c.DBDSN = "" }, true},
		{"bad admin email", func(c *Config) { c.DefaultAdminEmail = "admin" }, true},
		{"bad admin email without seeding", func(c *Config) { c.DefaultAdminEmail = "admin"; c.SeedDefaultAdmin = false }, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "development")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8375", c.Port)
	assert.Equal(t, StorageFile, c.StorageDriver)
	assert.Equal(t, "skillSwapData", c.StorageKey)
	assert.Equal(t, 3*time.Second, c.WatchdogInterval)
	assert.True(t, c.SeedDefaultAdmin)
}

func TestLoadConfig_EnvOverridesAndNormalization(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "test")
	t.Setenv("STORAGE_DRIVER", "  REDIS ")
	t.Setenv("WATCHDOG_INTERVAL", "500ms")
	t.Setenv("DEFAULT_ADMIN_EMAIL", " Root@Example.com ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, StorageRedis, c.StorageDriver)
	assert.Equal(t, 500*time.Millisecond, c.WatchdogInterval)
	assert.Equal(t, "root@example.com", c.DefaultAdminEmail)
}

func TestLoadConfig_MissingProfileFails(t *testing.T) {
	defer viper.Reset()
	t.Setenv("APP_ENV", "staging")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config.staging.yml")
}
