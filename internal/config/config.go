// Package config loads outputgen settings from an optional YAML file and
// OUTPUTGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/joshp123/outputgen/internal/browser"
)

// Environment variables that override file settings.
const (
	EnvBrowser     = "OUTPUTGEN_BROWSER"
	EnvHost        = "OUTPUTGEN_HOST"
	EnvPort        = "OUTPUTGEN_PORT"
	EnvStagingPath = "OUTPUTGEN_STAGING_PATH"
	EnvDebug       = "OUTPUTGEN_DEBUG"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Browser  BrowserConfig  `yaml:"browser"`
	Fixtures FixturesConfig `yaml:"fixtures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type BrowserConfig struct {
	Path        string            `yaml:"path"`
	Host        string            `yaml:"host"`
	Port        int               `yaml:"port"`
	Headless    bool              `yaml:"headless"`
	ExtraFlags  []string          `yaml:"extra_flags"`
	Env         map[string]string `yaml:"env"`
	Attach      bool              `yaml:"attach"`
	TargetIndex int               `yaml:"target_index"`

	ConnectAttempts int    `yaml:"connect_attempts"`
	ConnectInterval string `yaml:"connect_interval"`
	CommandTimeout  string `yaml:"command_timeout"`
	EventTimeout    string `yaml:"event_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`

	StagingPath string `yaml:"staging_path"`
}

type FixturesConfig struct {
	// Root is the directory searched by --all.
	Root string `yaml:"root"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultConfig() *Config {
	defaults := browser.DefaultConfig()
	return &Config{
		Browser: BrowserConfig{
			Host:            defaults.Host,
			Port:            defaults.Port,
			Headless:        !defaults.Headful,
			ConnectAttempts: defaults.ConnectAttempts,
			ConnectInterval: defaults.ConnectInterval.String(),
			CommandTimeout:  defaults.CommandTimeout.String(),
			EventTimeout:    defaults.EventTimeout.String(),
			ShutdownTimeout: defaults.ShutdownTimeout.String(),
			StagingPath:     defaults.StagingPath,
		},
		Fixtures: FixturesConfig{Root: "."},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file; a named file must exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if path := os.Getenv(EnvBrowser); path != "" {
		c.Browser.Path = path
	}
	if host := os.Getenv(EnvHost); host != "" {
		c.Browser.Host = host
	}
	if raw := os.Getenv(EnvPort); raw != "" {
		port, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a port number", ErrInvalid, EnvPort, raw)
		}
		c.Browser.Port = port
	}
	if path := os.Getenv(EnvStagingPath); path != "" {
		c.Browser.StagingPath = path
	}
	if debug, err := strconv.ParseBool(os.Getenv(EnvDebug)); err == nil && debug {
		c.Logging.Level = "debug"
	}
	return nil
}

// Validate checks every field that BrowserSettings and the CLI interpret.
func (c *Config) Validate() error {
	if c.Browser.Port < 0 || c.Browser.Port > 65535 {
		return fmt.Errorf("%w: browser.port %d out of range", ErrInvalid, c.Browser.Port)
	}
	if c.Browser.TargetIndex < 0 {
		return fmt.Errorf("%w: browser.target_index must not be negative", ErrInvalid)
	}
	if c.Browser.ConnectAttempts < 0 {
		return fmt.Errorf("%w: browser.connect_attempts must not be negative", ErrInvalid)
	}
	for name, value := range c.durations() {
		if _, err := parseDuration(value); err != nil {
			return fmt.Errorf("%w: browser.%s: %v", ErrInvalid, name, err)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level is the parsed logging level.
func (c *Config) Level() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	return level, nil
}

// BrowserSettings converts the browser section into a runner config.
func (c *Config) BrowserSettings() (browser.Config, error) {
	if err := c.Validate(); err != nil {
		return browser.Config{}, err
	}
	settings := browser.Config{
		BrowserPath:     c.Browser.Path,
		Host:            c.Browser.Host,
		Port:            c.Browser.Port,
		Headful:         !c.Browser.Headless,
		ExtraFlags:      append([]string(nil), c.Browser.ExtraFlags...),
		Env:             c.Browser.Env,
		Attach:          c.Browser.Attach,
		TargetIndex:     c.Browser.TargetIndex,
		ConnectAttempts: c.Browser.ConnectAttempts,
		StagingPath:     c.Browser.StagingPath,
	}
	settings.ConnectInterval, _ = parseDuration(c.Browser.ConnectInterval)
	settings.CommandTimeout, _ = parseDuration(c.Browser.CommandTimeout)
	settings.EventTimeout, _ = parseDuration(c.Browser.EventTimeout)
	settings.ShutdownTimeout, _ = parseDuration(c.Browser.ShutdownTimeout)
	return settings, nil
}

func (c *Config) durations() map[string]string {
	return map[string]string{
		"connect_interval": c.Browser.ConnectInterval,
		"command_timeout":  c.Browser.CommandTimeout,
		"event_timeout":    c.Browser.EventTimeout,
		"shutdown_timeout": c.Browser.ShutdownTimeout,
	}
}

// parseDuration accepts an empty string as zero, which the runner replaces
// with its default.
func parseDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %s", value)
	}
	return duration, nil
}
