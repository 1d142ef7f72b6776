// Package fixture reads and rewrites expected-output fixture files: runs of
// JavaScript code, each followed by a comment block holding its console output.
//
//	// Index: 0
//	console.log('xyz');
//	/* OUTPUT
//	xyz
//	*/
//
// A block opened with "/* OUTPUT-FIXED" is pinned and never regenerated.
package fixture

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	OutputMarker     = "/* OUTPUT"
	FrozenSuffix     = "-FIXED"
	OutputTerminator = "\n*/"
	IndexPrefix      = "// Index:"
)

var (
	// ErrNoOutputMarker indicates code that is not followed by an output block.
	ErrNoOutputMarker = errors.New("no /* OUTPUT marker to split code")
	// ErrUnterminatedOutput indicates an output block without its closing */ line.
	ErrUnterminatedOutput = errors.New("unterminated /* OUTPUT block")
)

// Segment is one code snippet with its expected console output.
type Segment struct {
	Index int
	// Code excludes the generated index comment.
	Code string
	// Output is the block body between the marker line and the terminator.
	// Frozen output is kept as written, including the newline that follows
	// the marker.
	Output string
	Frozen bool
}

// Parse splits content into segments.
func Parse(content string) ([]Segment, error) {
	remaining := strings.TrimSpace(content)
	if remaining == "" {
		return nil, fmt.Errorf("%w: file is empty", ErrNoOutputMarker)
	}

	var segments []Segment
	for index := 0; remaining != ""; index++ {
		code, block, found := strings.Cut(remaining, OutputMarker)
		if !found {
			return nil, fmt.Errorf("%w: segment %d: %s", ErrNoOutputMarker, index, preview(remaining))
		}
		body, rest, found := strings.Cut(block, OutputTerminator)
		if !found {
			return nil, fmt.Errorf("%w: segment %d", ErrUnterminatedOutput, index)
		}

		segment := Segment{Index: index, Code: stripIndex(strings.TrimSpace(code))}
		if frozen, ok := strings.CutPrefix(body, FrozenSuffix); ok {
			segment.Frozen = true
			segment.Output = strings.TrimRightFunc(frozen, unicode.IsSpace)
		} else {
			segment.Output = strings.TrimSpace(body)
		}

		segments = append(segments, segment)
		remaining = strings.TrimSpace(rest)
	}
	return segments, nil
}

// Render serializes segments, renumbering index comments by position.
func Render(segments []Segment) string {
	parts := make([]string, 0, len(segments)*3)
	for index, segment := range segments {
		parts = append(parts,
			fmt.Sprintf("%s %d\n", IndexPrefix, index)+segment.Code,
			segment.block(),
			"\n",
		)
	}
	return strings.Join(parts, "\n")
}

func (segment Segment) block() string {
	if segment.Frozen {
		return OutputMarker + FrozenSuffix + segment.Output + OutputTerminator
	}
	return OutputMarker + "\n" + segment.Output + OutputTerminator
}

func stripIndex(code string) string {
	if !strings.HasPrefix(code, IndexPrefix) {
		return code
	}
	_, rest, _ := strings.Cut(code, "\n")
	return rest
}

func preview(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return truncate(line, 60)
}

// truncate keeps the first limit runes of text.
func truncate(text string, limit int) string {
	count := 0
	for offset := range text {
		if count == limit {
			return text[:offset] + "..."
		}
		count++
	}
	return text
}
