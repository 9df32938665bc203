package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Warehouse WarehouseConfig `mapstructure:"warehouse"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Data      DataConfig      `mapstructure:"data"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// WarehouseConfig points at the analytic views. Schema is the qualified
// database.schema prefix for the VW_* views; leave it empty when the DSN
// already scopes queries (tests do this).
type WarehouseConfig struct {
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
}

// AgentConfig describes the hosted conversational agent endpoint.
type AgentConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Database  string `mapstructure:"database"`
	Schema    string `mapstructure:"schema"`
	Name      string `mapstructure:"name"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// Timeout returns the request timeout as a duration.
func (a AgentConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutMS) * time.Millisecond
}

// DataConfig bounds the dataset validity window (inclusive dates, YYYY-MM-DD).
type DataConfig struct {
	MinDate string `mapstructure:"min_date"`
	MaxDate string `mapstructure:"max_date"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("warehouse.dsn", "behavior.db")
	viper.SetDefault("warehouse.schema", "GRP17_LAB_DB.PS_USER_BEHAVIOR")
	viper.SetDefault("agent.database", "SNOWFLAKE_INTELLIGENCE")
	viper.SetDefault("agent.schema", "AGENTS")
	viper.SetDefault("agent.name", "SNOWPATROL_AGENT")
	viper.SetDefault("agent.timeout_ms", 60_000)
	viper.SetDefault("data.min_date", "2025-08-18")
	viper.SetDefault("data.max_date", "2025-09-18")
	viper.SetDefault("log.level", "info")
}

// Load loads the configuration from config.yaml, falling back to defaults
// when no config file is present.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the fields the rest of the system cannot default.
func (c *Config) Validate() error {
	if c.Agent.TimeoutMS <= 0 {
		return fmt.Errorf("agent.timeout_ms must be > 0, got %d", c.Agent.TimeoutMS)
	}
	if c.Warehouse.DSN == "" {
		return fmt.Errorf("warehouse.dsn cannot be empty")
	}
	if _, err := time.Parse("2006-01-02", c.Data.MinDate); err != nil {
		return fmt.Errorf("data.min_date: %w", err)
	}
	if _, err := time.Parse("2006-01-02", c.Data.MaxDate); err != nil {
		return fmt.Errorf("data.max_date: %w", err)
	}
	return nil
}
