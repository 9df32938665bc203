package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "GRP17_LAB_DB.PS_USER_BEHAVIOR", cfg.Warehouse.Schema)
	require.Equal(t, "SNOWPATROL_AGENT", cfg.Agent.Name)
	require.Equal(t, 60*time.Second, cfg.Agent.Timeout())
	require.Equal(t, "2025-08-18", cfg.Data.MinDate)
	require.Equal(t, "2025-09-18", cfg.Data.MaxDate)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	yaml := `
server:
  port: "9090"
warehouse:
  dsn: "/var/lib/snowpatrol/behavior.db"
  schema: ""
agent:
  base_url: "https://account.example.com"
  timeout_ms: 30000
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "/var/lib/snowpatrol/behavior.db", cfg.Warehouse.DSN)
	require.Empty(t, cfg.Warehouse.Schema)
	require.Equal(t, "https://account.example.com", cfg.Agent.BaseURL)
	require.Equal(t, 30*time.Second, cfg.Agent.Timeout())
	// Untouched keys keep their defaults.
	require.Equal(t, "SNOWPATROL_AGENT", cfg.Agent.Name)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	yaml := `
agent:
  timeout_ms: 0
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	_, err := Load()
	require.ErrorContains(t, err, "agent.timeout_ms")
}

func TestValidateDates(t *testing.T) {
	cfg := &Config{
		Warehouse: WarehouseConfig{DSN: "behavior.db"},
		Agent:     AgentConfig{TimeoutMS: 1000},
		Data:      DataConfig{MinDate: "2025-08-18", MaxDate: "not-a-date"},
	}
	require.ErrorContains(t, cfg.Validate(), "data.max_date")
}
