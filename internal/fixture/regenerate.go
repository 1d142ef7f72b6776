package fixture

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// SnippetRunner executes one code snippet and returns its console output.
type SnippetRunner interface {
	RunSnippet(ctx context.Context, code string) (string, error)
}

// Result summarizes one regenerated file.
type Result struct {
	Path     string
	Segments int
	Executed int
	Frozen   int
	Changed  bool
}

type Regenerator struct {
	runner SnippetRunner
	logger *zap.Logger
}

func NewRegenerator(runner SnippetRunner, logger *zap.Logger) *Regenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Regenerator{runner: runner, logger: logger}
}

// Regenerate re-executes every unfrozen segment of the file at path and
// rewrites it only if the rendered text differs from what is on disk.
func (regenerator *Regenerator) Regenerate(ctx context.Context, path string) (Result, error) {
	result := Result{Path: path}
	logger := regenerator.logger.With(zap.String("file", path))
	logger.Info("generating output")

	info, err := os.Stat(path)
	if err != nil {
		return result, err
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return result, err
	}
	segments, err := Parse(string(original))
	if err != nil {
		return result, fmt.Errorf("parse %s: %w", path, err)
	}
	result.Segments = len(segments)

	for index := range segments {
		segment := &segments[index]
		if segment.Frozen {
			logger.Debug("segment frozen, not running", zap.Int("segment", index))
			result.Frozen++
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		logger.Debug("running segment", zap.Int("segment", index), zap.String("code", abbreviate(segment.Code)))
		output, err := regenerator.runner.RunSnippet(ctx, segment.Code)
		if err != nil {
			return result, fmt.Errorf("%s segment %d: %w", path, index, err)
		}
		segment.Output = strings.TrimSpace(output)
		result.Executed++
		logger.Debug("segment output", zap.Int("segment", index), zap.String("output", abbreviate(segment.Output)))
	}

	rendered := Render(segments)
	if rendered == string(original) {
		logger.Info("output unchanged", zap.Int("segments", result.Segments))
		return result, nil
	}
	if err := os.WriteFile(path, []byte(rendered), info.Mode().Perm()); err != nil {
		return result, err
	}
	result.Changed = true
	logger.Info("output saved", zap.Int("segments", result.Segments), zap.Int("executed", result.Executed))
	return result, nil
}

func abbreviate(text string) string {
	return truncate(text, 100)
}
