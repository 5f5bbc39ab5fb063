package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServerConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, constants.DefaultServerAddress, cfg.Address)
		assert.Equal(t, constants.DefaultMaxUploadSizeBytes, cfg.UploadSizeBytes())
		assert.Equal(t, 5*time.Second, cfg.ShutdownGrace())
		assert.Equal(t, config.LoggingConfig{}, cfg.Logging)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeServerConfig(t, `address: 127.0.0.1:9000
maxUploadSize: 2M
shutdownTimeout: 30s
logging:
  level: debug
  format: console
  outputFile: /tmp/planner-server.log
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, int64(2*1024*1024), cfg.UploadSizeBytes())
	assert.Equal(t, 30*time.Second, cfg.ShutdownGrace())
	assert.Equal(t, config.LoggingConfig{Level: "debug", Format: "console", OutputFile: "/tmp/planner-server.log"}, cfg.Logging)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"bad size":     "maxUploadSize: invalid",
		"bad timeout":  "shutdownTimeout: soon",
		"zero timeout": "shutdownTimeout: 0s",
		"bad yaml":     "address: [unclosed",
	}

	for name, contents := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeServerConfig(t, contents))
			assert.Error(t, err)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxUploadSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256K":      256 * 1024,
		"64 kb":     64 * 1024,
		"1m":        1024 * 1024,
		"3MB":       3 * 1024 * 1024,
		"2G":        2 * 1024 * 1024 * 1024,
		"  4096   ": 4096,
	}

	for input, expected := range tests {
		got, err := ParseSize(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	for _, input := range []string{"1TB", "abc", "1.5M", "12 parsecs", "99999999999999999999G"} {
		_, err := ParseSize(input)
		assert.Error(t, err, input)
	}
}

func TestFromConfiguration(t *testing.T) {
	conf := &config.Configuration{
		Logging: config.LoggingConfig{Level: "warn"},
		Server:  config.ServerConfig{Address: "127.0.0.1:9100", MaxUploadSize: "64K", ShutdownTimeout: "2s"},
	}

	cfg, err := FromConfiguration(conf)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Address)
	assert.Equal(t, int64(64*1024), cfg.UploadSizeBytes())
	assert.Equal(t, 2*time.Second, cfg.ShutdownGrace())
	assert.Equal(t, "warn", cfg.Logging.Level)

	conf.Server = config.ServerConfig{}
	cfg, err = FromConfiguration(conf)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultServerAddress, cfg.Address)
	assert.Equal(t, constants.DefaultMaxUploadSizeBytes, cfg.UploadSizeBytes())

	cfg, err = FromConfiguration(nil)
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultServerAddress, cfg.Address)

	conf.Server.MaxUploadSize = "12 parsecs"
	_, err = FromConfiguration(conf)
	assert.Error(t, err)
}
