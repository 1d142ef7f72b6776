package fixture

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arrayFixture = `// Index: 0
var a = [1, 2];
console.log(a);
/* OUTPUT
[1, 2]
*/


// Index: 1
console.log(typeof [].map);
/* OUTPUT-FIXED
function
*/

`

func TestParseSplitsSegments(t *testing.T) {
	segments, err := Parse(arrayFixture)
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, Segment{Index: 0, Code: "var a = [1, 2];\nconsole.log(a);", Output: "[1, 2]"}, segments[0])
	assert.Equal(t, Segment{Index: 1, Code: "console.log(typeof [].map);", Output: "\nfunction", Frozen: true}, segments[1])
}

func TestRenderRoundTripsCanonicalFile(t *testing.T) {
	segments, err := Parse(arrayFixture)
	require.NoError(t, err)
	assert.Equal(t, arrayFixture, Render(segments))
}

func TestRenderRegeneratesIndexComments(t *testing.T) {
	content := "// Index: 7\na();\n/* OUTPUT\n*/\n// Index: 3\nb();\n/* OUTPUT\n*/\nc();\n/* OUTPUT\n*/"
	segments, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, segments, 3)

	rendered := Render(segments)
	for index, want := range []string{"// Index: 0\na();", "// Index: 1\nb();", "// Index: 2\nc();"} {
		assert.Contains(t, rendered, want, "segment %d", index)
	}
	assert.Equal(t, 3, strings.Count(rendered, IndexPrefix))
}

func TestRenderEmptyOutputBlock(t *testing.T) {
	rendered := Render([]Segment{{Code: "while (false) {}"}})
	assert.Equal(t, "// Index: 0\nwhile (false) {}\n/* OUTPUT\n\n*/\n\n", rendered)
}

func TestParseKeepsFrozenBlockVerbatim(t *testing.T) {
	content := "x();\n/* OUTPUT-FIXED   kept as is\n  indented\n*/\n"
	segments, err := Parse(content)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.True(t, segments[0].Frozen)

	assert.Contains(t, Render(segments), "/* OUTPUT-FIXED   kept as is\n  indented\n*/")
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "  \n", ErrNoOutputMarker},
		{"code without block", "console.log(1);\n", ErrNoOutputMarker},
		{"trailing code", "a();\n/* OUTPUT\n1\n*/\nb();\n", ErrNoOutputMarker},
		{"unterminated", "a();\n/* OUTPUT\n1\n", ErrUnterminatedOutput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.content)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestParseErrorPreviewKeepsRunesWhole(t *testing.T) {
	code := strings.Repeat("é", 80) + "\nmore();\n"
	_, err := Parse(code)
	require.ErrorIs(t, err, ErrNoOutputMarker)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Contains(t, err.Error(), strings.Repeat("é", 60)+"...")
	assert.NotContains(t, err.Error(), strings.Repeat("é", 61))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "日本...", truncate("日本語", 2))
	assert.Equal(t, "日本語", truncate("日本語", 3))

	long := abbreviate(strings.Repeat("ü", 150))
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, 103, utf8.RuneCountInString(long))
}
