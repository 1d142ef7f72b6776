package outputgen

import (
	"context"

	"github.com/joshp123/outputgen/internal/browser"
	"github.com/joshp123/outputgen/internal/fixture"
)

type (
	BrowserConfig = browser.Config
	Segment       = fixture.Segment
	Result        = fixture.Result
)

// Session runs snippets. *browser.Runner is the production implementation.
type Session interface {
	Start(ctx context.Context) error
	RunSnippet(ctx context.Context, code string) (string, error)
	Stop() error
}

// Summary aggregates a RegenerateAll call.
type Summary struct {
	Files    []Result
	Changed  int
	Executed int
	Frozen   int
}

func (summary *Summary) add(result Result) {
	summary.Files = append(summary.Files, result)
	summary.Executed += result.Executed
	summary.Frozen += result.Frozen
	if result.Changed {
		summary.Changed++
	}
}

// Discover lists the fixture files below root.
func Discover(root string) ([]string, error) {
	return fixture.Discover(root)
}

// Parse splits fixture content into segments.
func Parse(content string) ([]Segment, error) {
	return fixture.Parse(content)
}

// Render serializes segments back into fixture text.
func Render(segments []Segment) string {
	return fixture.Render(segments)
}
