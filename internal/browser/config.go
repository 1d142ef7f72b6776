package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHost            = "localhost"
	defaultPort            = 9222
	defaultConnectAttempts = 10
	defaultConnectInterval = 200 * time.Millisecond
	defaultCommandTimeout  = time.Second
	defaultEventTimeout    = 5 * time.Second
	defaultShutdownTimeout = 2 * time.Second
	stagingFileName        = "__test_code.html"
)

// Config controls how the runner reaches a browser and how long it waits
// for it.
type Config struct {
	// BrowserPath is the executable to launch. Empty means look one up.
	BrowserPath string
	Host        string
	Port        int
	// Headful shows the browser window. The zero value launches headless.
	Headful    bool
	ExtraFlags []string
	// Env is added to the allowlisted environment of a launched browser.
	Env map[string]string
	// Attach connects to an already running browser instead of launching one.
	Attach      bool
	TargetIndex int

	ConnectAttempts int
	ConnectInterval time.Duration
	CommandTimeout  time.Duration
	// EventTimeout bounds the silence between two events of one snippet run.
	EventTimeout    time.Duration
	ShutdownTimeout time.Duration

	// StagingPath is the page file every snippet is written to before loading.
	StagingPath string
}

func DefaultConfig() Config {
	return Config{
		Host:            defaultHost,
		Port:            defaultPort,
		ConnectAttempts: defaultConnectAttempts,
		ConnectInterval: defaultConnectInterval,
		CommandTimeout:  defaultCommandTimeout,
		EventTimeout:    defaultEventTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
		StagingPath:     filepath.Join(os.TempDir(), stagingFileName),
	}
}

func normalizeConfig(config Config) (Config, error) {
	defaults := DefaultConfig()

	config.BrowserPath = strings.TrimSpace(config.BrowserPath)
	config.Host = strings.TrimSpace(config.Host)
	if config.Host == "" {
		config.Host = defaults.Host
	}
	if config.Port == 0 {
		config.Port = defaults.Port
	}
	if config.Port < 0 || config.Port > 65535 {
		return Config{}, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, config.Port)
	}
	if config.TargetIndex < 0 {
		return Config{}, fmt.Errorf("%w: negative target index %d", ErrInvalidConfig, config.TargetIndex)
	}
	if config.ConnectAttempts <= 0 {
		config.ConnectAttempts = defaults.ConnectAttempts
	}
	if config.ConnectInterval <= 0 {
		config.ConnectInterval = defaults.ConnectInterval
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	if config.EventTimeout <= 0 {
		config.EventTimeout = defaults.EventTimeout
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = defaults.ShutdownTimeout
	}
	config.StagingPath = strings.TrimSpace(config.StagingPath)
	if config.StagingPath == "" {
		config.StagingPath = defaults.StagingPath
	}
	staging, err := filepath.Abs(config.StagingPath)
	if err != nil {
		return Config{}, fmt.Errorf("%w: staging path: %v", ErrInvalidConfig, err)
	}
	config.StagingPath = staging
	config.ExtraFlags = append([]string(nil), config.ExtraFlags...)
	if config.Env != nil {
		env := make(map[string]string, len(config.Env))
		for key, value := range config.Env {
			env[key] = value
		}
		config.Env = env
	}
	return config, nil
}

// launchArgs returns the command line flags for a launched browser.
func (config Config) launchArgs() []string {
	args := []string{"--remote-debugging-port=" + strconv.Itoa(config.Port)}
	if !config.Headful {
		args = append(args, "--headless")
	}
	return append(args, config.ExtraFlags...)
}
