// Package config loads the tabmon YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/tab_mon/internal/infra"
	"github.com/eliteGoblin/focusd/tab_mon/internal/policy"
)

// Config is the full daemon configuration. Every field is optional in the file.
type Config struct {
	Manager    ManagerConfig    `yaml:"manager"`
	Targets    TargetsConfig    `yaml:"targets"`
	Discovery  DiscoveryConfig  `yaml:"discovery"`
	Visibility VisibilityConfig `yaml:"visibility"`
	Geometry   GeometryConfig   `yaml:"geometry"`
	OrderFile  string           `yaml:"order_file"`
	SocketPath string           `yaml:"socket_path"`
	Log        LogConfig        `yaml:"log"`
}

// ManagerConfig locates the window manager executable.
type ManagerConfig struct {
	Binary      string   `yaml:"binary"`
	SearchPaths []string `yaml:"search_paths"`
}

// TargetsConfig names the tracked application.
type TargetsConfig struct {
	WindowOwners       []string `yaml:"window_owners"`
	FrontmostFragments []string `yaml:"frontmost_fragments"`
}

type DiscoveryConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type VisibilityConfig struct {
	Interval     time.Duration `yaml:"interval"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	MaxRetries   int           `yaml:"max_retries"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

type GeometryConfig struct {
	Margin float64 `yaml:"margin"`
}

// LogConfig controls the daemon log file and its rotation.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	targets := policy.NewRegistry()
	return &Config{
		Manager: ManagerConfig{
			Binary:      "yabai",
			SearchPaths: append([]string(nil), infra.DefaultYabaiSearchPaths...),
		},
		Targets: TargetsConfig{
			WindowOwners:       targets.WindowOwners(),
			FrontmostFragments: targets.FrontmostFragments(),
		},
		Discovery: DiscoveryConfig{Interval: time.Second},
		Visibility: VisibilityConfig{
			Interval:     250 * time.Millisecond,
			RetryDelay:   100 * time.Millisecond,
			MaxRetries:   2,
			QueryTimeout: 2 * time.Second,
		},
		OrderFile:  infra.DefaultOrderPath(),
		SocketPath: infra.DefaultSocketPath(),
		Log: LogConfig{
			File:       infra.DefaultLogPath(),
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 14,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, expands paths and validates the result.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse yaml: %w", err)
	}
	cfg.OrderFile = infra.ExpandHome(cfg.OrderFile)
	cfg.SocketPath = infra.ExpandHome(cfg.SocketPath)
	cfg.Log.File = infra.ExpandHome(cfg.Log.File)
	return cfg.Validate()
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Manager.Binary) == "" {
		problems = append(problems, "manager.binary is empty")
	}
	if !hasNonBlank(c.Targets.WindowOwners) {
		problems = append(problems, "targets.window_owners is empty")
	}
	if !hasNonBlank(c.Targets.FrontmostFragments) {
		problems = append(problems, "targets.frontmost_fragments is empty")
	}
	if c.Discovery.Interval <= 0 {
		problems = append(problems, "discovery.interval must be positive")
	}
	if c.Visibility.Interval <= 0 {
		problems = append(problems, "visibility.interval must be positive")
	}
	if c.Visibility.RetryDelay <= 0 {
		problems = append(problems, "visibility.retry_delay must be positive")
	}
	if c.Visibility.MaxRetries < 0 {
		problems = append(problems, "visibility.max_retries must not be negative")
	}
	if c.Visibility.QueryTimeout <= 0 {
		problems = append(problems, "visibility.query_timeout must be positive")
	}
	if c.Geometry.Margin < 0 {
		problems = append(problems, "geometry.margin must not be negative")
	}
	if c.OrderFile == "" {
		problems = append(problems, "order_file is empty")
	}
	if c.SocketPath == "" {
		problems = append(problems, "socket_path is empty")
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Matcher builds the target matcher from the configured names.
func (c *Config) Matcher() *policy.Matcher {
	return policy.NewMatcher(c.Targets.WindowOwners, c.Targets.FrontmostFragments)
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

func hasNonBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}
