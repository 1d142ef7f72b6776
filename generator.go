// Package outputgen regenerates the expected console output recorded in
// JavaScript fixture files by running every snippet in a headless browser.
package outputgen

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/joshp123/outputgen/internal/fixture"
)

// Generator drives one browser session across any number of fixture files.
type Generator struct {
	session     Session
	regenerator *fixture.Regenerator
	logger      *zap.Logger

	mu     sync.Mutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

// Start opens the session. On failure the session is already stopped.
func Start(ctx context.Context, options Options) (*Generator, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	options = options.withDefaults()

	if err := options.Session.Start(ctx); err != nil {
		return nil, multierr.Append(err, options.Session.Stop())
	}
	return &Generator{
		session:     options.Session,
		regenerator: fixture.NewRegenerator(options.Session, options.Logger),
		logger:      options.Logger,
	}, nil
}

// Regenerate rewrites the outputs of one fixture file.
func (generator *Generator) Regenerate(ctx context.Context, path string) (Result, error) {
	if err := generator.ready(ctx); err != nil {
		return Result{Path: path}, err
	}
	return generator.regenerator.Regenerate(ctx, path)
}

// RegenerateAll processes paths in order and stops at the first failure,
// returning what was completed before it.
func (generator *Generator) RegenerateAll(ctx context.Context, paths []string) (Summary, error) {
	var summary Summary
	if err := generator.ready(ctx); err != nil {
		return summary, err
	}
	for index, path := range paths {
		generator.logger.Info("processing file",
			zap.Int("index", index+1),
			zap.Int("total", len(paths)),
			zap.String("file", path),
		)
		result, err := generator.Regenerate(ctx, path)
		if err != nil {
			return summary, err
		}
		summary.add(result)
	}
	generator.logger.Info("processed files",
		zap.Int("count", len(summary.Files)),
		zap.Int("changed", summary.Changed),
	)
	return summary, nil
}

// RunSnippet runs one piece of code and returns its console output.
func (generator *Generator) RunSnippet(ctx context.Context, code string) (string, error) {
	if err := generator.ready(ctx); err != nil {
		return "", err
	}
	return generator.session.RunSnippet(ctx, code)
}

// Close stops the session. It is safe to call more than once.
func (generator *Generator) Close() error {
	generator.closeOnce.Do(func() {
		generator.mu.Lock()
		generator.closed = true
		generator.mu.Unlock()
		generator.closeErr = generator.session.Stop()
	})
	return generator.closeErr
}

func (generator *Generator) ready(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	generator.mu.Lock()
	defer generator.mu.Unlock()
	if generator.closed {
		return ErrGeneratorClosed
	}
	return nil
}
