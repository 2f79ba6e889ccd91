// Package config handles configuration loading and validation for the
// taskwarrior MCP server.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KaiErikNiermann/taskwarrior-mcp/internal/taskwarrior"
)

// Config holds the server configuration. The server itself is stateless;
// everything here parameterizes how the external task program is invoked.
type Config struct {
	// TaskBin is the taskwarrior binary to invoke.
	TaskBin string `yaml:"task_bin"`
	// DataDir overrides taskwarrior's data directory (rc.data.location).
	// Empty means taskwarrior's own default. Used for sandbox isolation.
	DataDir string `yaml:"data_dir"`
	// TimeoutSeconds bounds each taskwarrior invocation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// DefaultReport is the list_tasks report used when the caller omits one.
	DefaultReport string `yaml:"default_report"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		TaskBin:        "task",
		TimeoutSeconds: int(taskwarrior.DefaultTimeout / time.Second),
		DefaultReport:  taskwarrior.DefaultReport,
	}
}

// Load reads configuration from the given path, merging file values over
// defaults. An empty path returns defaults; a named path must exist, so a
// typoed --config surfaces as an error instead of silently running on
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TaskBin == "" {
		c.TaskBin = "task"
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = int(taskwarrior.DefaultTimeout / time.Second)
	}
	if c.DefaultReport == "" {
		c.DefaultReport = taskwarrior.DefaultReport
	}
}

// Validate checks config invariants.
func (c *Config) Validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if !taskwarrior.KnownReport(c.DefaultReport) {
		return fmt.Errorf("default_report %q is not a known report", c.DefaultReport)
	}
	return nil
}

// Timeout returns the per-invocation timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
