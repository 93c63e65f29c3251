package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int           `env:"TEST_CFG_PORT" envDefault:"3000"`
	DataDir string        `env:"TEST_CFG_DATA_DIR" envDefault:"./data"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"10s"`
	Brokers []string      `env:"TEST_CFG_BROKERS" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_TIMEOUT", "250ms")
	t.Setenv("TEST_CFG_BROKERS", "a:9092,b:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadFrom_IgnoresProcessEnv(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")

	var cfg testConfig
	require.NoError(t, LoadFrom(&cfg, map[string]string{"TEST_CFG_DATA_DIR": "/srv/data"}))

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "/srv/data", cfg.DataDir)
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("HTTP port", 3000))
	assert.EqualError(t, ValidatePort("HTTP port", 0), "invalid HTTP port: 0")
	assert.Error(t, ValidatePort("HTTP port", 70000))
}

func TestValidateNonNegative(t *testing.T) {
	assert.NoError(t, ValidateNonNegative("REQUEST_TIMEOUT", 0))
	assert.Error(t, ValidateNonNegative("REQUEST_TIMEOUT", -time.Second))
}
