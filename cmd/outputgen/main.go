// Command outputgen regenerates the /* OUTPUT */ blocks of JavaScript fixture
// files by running each snippet in a headless browser.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/joshp123/outputgen"
	"github.com/joshp123/outputgen/internal/config"
)

type flags struct {
	all         bool
	root        string
	configPath  string
	browserPath string
	host        string
	port        int
	attach      bool
	verbose     bool
}

// app holds the seams tests replace.
type app struct {
	start func(ctx context.Context, options outputgen.Options) (*outputgen.Generator, error)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCommand(app{start: outputgen.Start}).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCommand(application app) *cobra.Command {
	options := &flags{}
	cmd := &cobra.Command{
		Use:   "outputgen [flags] [files...]",
		Short: "Regenerate expected console output in JavaScript fixture files",
		Long: `outputgen runs every code segment of a fixture file in a headless browser
and writes what it logged to the console into the /* OUTPUT */ block that
follows it. Blocks opened with /* OUTPUT-FIXED are left alone.

Pass fixture files explicitly, or use --all to process every *.js file
under --root.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !options.all && len(args) == 0 {
				return cmd.Help()
			}
			return application.run(cmd, options, args)
		},
	}

	cmd.Flags().BoolVarP(&options.all, "all", "a", false, "process every fixture file under --root")
	cmd.Flags().StringVar(&options.root, "root", "", "directory searched by --all (default from config, else .)")
	cmd.Flags().StringVar(&options.configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&options.browserPath, "browser", "", "browser executable (default: look up Chrome/Chromium)")
	cmd.Flags().StringVar(&options.host, "host", "", "remote debugging host")
	cmd.Flags().IntVar(&options.port, "port", 0, "remote debugging port")
	cmd.Flags().BoolVar(&options.attach, "attach", false, "connect to a running browser instead of launching one")
	cmd.Flags().BoolVarP(&options.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func (application app) run(cmd *cobra.Command, options *flags, args []string) (err error) {
	cfg, err := config.Load(options.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, options)

	logger, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	files, err := fixtureFiles(cfg, options, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("no fixture files found", zap.String("root", cfg.Fixtures.Root))
		fmt.Fprintln(cmd.OutOrStdout(), "processed 0 files")
		return nil
	}

	generatorOptions, err := outputgen.OptionsFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	generator, err := application.start(cmd.Context(), generatorOptions)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer func() {
		err = multierr.Append(err, generator.Close())
	}()

	summary, err := generator.RegenerateAll(cmd.Context(), files)
	fmt.Fprintf(cmd.OutOrStdout(), "processed %d files\n", len(summary.Files))
	return err
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, options *flags) {
	changed := cmd.Flags().Changed
	if changed("browser") {
		cfg.Browser.Path = options.browserPath
	}
	if changed("host") {
		cfg.Browser.Host = options.host
	}
	if changed("port") {
		cfg.Browser.Port = options.port
	}
	if changed("attach") {
		cfg.Browser.Attach = options.attach
	}
	if changed("root") {
		cfg.Fixtures.Root = options.root
	}
	if options.verbose {
		cfg.Logging.Level = "debug"
	}
}

func fixtureFiles(cfg *config.Config, options *flags, args []string) ([]string, error) {
	if options.all {
		return outputgen.Discover(cfg.Fixtures.Root)
	}
	files := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
