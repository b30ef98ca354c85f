package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds all configuration for the identity service.
// Tags use mapstructure for Viper unmarshalling.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`

	// RedisAddr enables the shared role-directory cache when non-empty;
	// otherwise an in-process cache is used.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	// Environment is "development" or "production". Storage-failure details
	// are only returned to callers in development.
	Environment string `mapstructure:"ENVIRONMENT"`

	RoleCacheTTLSeconds int `mapstructure:"ROLE_CACHE_TTL_SEC"`
}

// IsDevelopment reports whether error details may be exposed to callers.
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// RoleCacheTTL returns the directory-cache TTL as a duration.
func (c *ServerConfig) RoleCacheTTL() time.Duration {
	return time.Duration(c.RoleCacheTTLSeconds) * time.Second
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/wildlanka-identity/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/wildlanka_identity_dev")
	v.SetDefault("MONGO_DB_NAME", "wildlanka_identity_dev")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_PREFIX", "wlid")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("ROLE_CACHE_TTL_SEC", 60)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
