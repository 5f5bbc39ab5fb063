package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the command API server.
type Config struct {
	Address         string               `yaml:"address"`
	MaxUploadSize   string               `yaml:"maxUploadSize"`
	ShutdownTimeout string               `yaml:"shutdownTimeout"`
	Logging         config.LoggingConfig `yaml:"logging"`

	uploadSizeBytes int64
	shutdownGrace   time.Duration
}

// sizeUnits maps size suffixes to their byte multiplier.
var sizeUnits = map[string]int64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
}

func defaultConfig() *Config {
	cfg := &Config{}
	_ = cfg.normalize()
	return cfg
}

// FromConfiguration derives the server configuration from the application
// configuration's server and logging sections.
func FromConfiguration(conf *config.Configuration) (*Config, error) {
	if conf == nil {
		return defaultConfig(), nil
	}
	cfg := &Config{
		Address:         conf.Server.Address,
		MaxUploadSize:   conf.Server.MaxUploadSize,
		ShutdownTimeout: conf.Server.ShutdownTimeout,
		Logging:         conf.Logging,
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig loads a standalone server configuration from YAML. If the file
// does not exist, defaults are returned without error.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read server config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse server config %s: %w", path, err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("server config %s: %w", path, err)
	}
	return cfg, nil
}

// UploadSizeBytes returns the maximum request body size in bytes.
func (c *Config) UploadSizeBytes() int64 {
	return c.uploadSizeBytes
}

// ShutdownGrace returns how long a graceful shutdown may take.
func (c *Config) ShutdownGrace() time.Duration {
	return c.shutdownGrace
}

// normalize fills defaults and resolves the human-readable fields.
func (c *Config) normalize() error {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(c.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	c.uploadSizeBytes = size

	timeout := strings.TrimSpace(c.ShutdownTimeout)
	if timeout == "" {
		timeout = constants.DefaultShutdownTimeout
	}
	grace, err := time.ParseDuration(timeout)
	if err != nil || grace <= 0 {
		return fmt.Errorf("invalid shutdown timeout %q", c.ShutdownTimeout)
	}
	c.shutdownGrace = grace
	return nil
}

// ParseSize converts a human-friendly byte string such as "256K" or "10MB"
// into bytes. An empty string yields the default upload size.
func ParseSize(value string) (int64, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	digits := strings.TrimRightFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	unit := strings.TrimSpace(trimmed[len(digits):])
	digits = strings.TrimSpace(digits)
	if digits == "" {
		return 0, fmt.Errorf("invalid size: %s", value)
	}

	multiplier, ok := sizeUnits[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported size unit %q", unit)
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}
	if n > (1<<63-1)/multiplier {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return n * multiplier, nil
}
