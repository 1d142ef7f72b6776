package outputgen

import (
	"go.uber.org/zap"

	"github.com/joshp123/outputgen/internal/browser"
	"github.com/joshp123/outputgen/internal/config"
)

type Options struct {
	Browser BrowserConfig
	Logger  *zap.Logger
	// Session replaces the browser session started from Browser.
	Session Session
}

func DefaultOptions() Options {
	return Options{Browser: browser.DefaultConfig()}
}

// OptionsFromConfig builds options from a loaded config file.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) (Options, error) {
	options := DefaultOptions()
	options.Logger = logger
	if cfg == nil {
		return options, nil
	}
	settings, err := cfg.BrowserSettings()
	if err != nil {
		return Options{}, err
	}
	options.Browser = settings
	return options, nil
}

func (options Options) withDefaults() Options {
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	if options.Session == nil {
		options.Session = browser.NewRunner(options.Browser, options.Logger)
	}
	return options
}
