package snippet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NoMarkers(t *testing.T) {
	source := "\n" +
		"    let x = 1\n" +
		"    let y = 2\n" +
		"\n"

	s := Parse(source)

	assert.Empty(t, s.Slices)
	assert.Empty(t, s.Explanation)
	assert.Equal(t, []string{"let x = 1", "let y = 2"}, s.Presentation)
}

func TestParse_ExplanationAndSingleSlice(t *testing.T) {
	source := "// This is a snippet.\n" +
		"// snippet.main\n" +
		"let x = 1\n" +
		"// snippet.main.end\n" +
		"let y = 2"

	s := Parse(source)

	assert.Equal(t, []string{"This is a snippet."}, s.Explanation)
	assert.Equal(t, []string{"let x = 1", "let y = 2"}, s.Presentation)
	require.Contains(t, s.Slices, "main")
	assert.Equal(t, Range{Start: 0, End: 1}, s.Slices["main"])
}

func TestParse_ExplanationCommonIndentationStripped(t *testing.T) {
	source := "//  First line.\n" +
		"//  Second line.\n" +
		"code()\n"

	s := Parse(source)

	assert.Equal(t, []string{"First line.", "Second line."}, s.Explanation)
	assert.Equal(t, []string{"code()"}, s.Presentation)
}

func TestParse_ExplanationEndsAtBlankLine(t *testing.T) {
	source := "// Explanation.\n" +
		"\n" +
		"// Not explanation anymore.\n" +
		"code()\n"

	s := Parse(source)

	assert.Equal(t, []string{"Explanation."}, s.Explanation)
	assert.Equal(t, []string{"// Not explanation anymore.", "code()"}, s.Presentation)
}

func TestParse_ExplanationEndsAtMarker(t *testing.T) {
	source := "// Explanation.\n" +
		"// snippet.main\n" +
		"// A comment that stays in the body.\n" +
		"code()\n" +
		"// snippet.main.end\n"

	s := Parse(source)

	assert.Equal(t, []string{"Explanation."}, s.Explanation)
	assert.Equal(t, []string{"// A comment that stays in the body.", "code()"}, s.Presentation)
	assert.Equal(t, Range{Start: 0, End: 2}, s.Slices["main"])
}

func TestParse_NestedSlicesCloseTogether(t *testing.T) {
	source := "// snippet.a.b\n" +
		"one\n" +
		"// snippet.a.b.c\n" +
		"two\n" +
		"// snippet.a.end\n" +
		"three\n"

	s := Parse(source)

	assert.Equal(t, []string{"one", "two", "three"}, s.Presentation)
	assert.Equal(t, Range{Start: 0, End: 2}, s.Slices["a.b"])
	assert.Equal(t, Range{Start: 1, End: 2}, s.Slices["a.b.c"])
}

func TestParse_SiblingSliceClosesPrevious(t *testing.T) {
	source := "// snippet.first\n" +
		"one\n" +
		"// snippet.second\n" +
		"two\n"

	s := Parse(source)

	assert.Equal(t, Range{Start: 0, End: 1}, s.Slices["first"])
	assert.Equal(t, Range{Start: 1, End: 2}, s.Slices["second"])
}

func TestParse_BareEndClosesEverything(t *testing.T) {
	source := "// snippet.outer\n" +
		"one\n" +
		"// snippet.outer.inner\n" +
		"two\n" +
		"// snippet.end\n" +
		"three\n"

	s := Parse(source)

	assert.Equal(t, Range{Start: 0, End: 2}, s.Slices["outer"])
	assert.Equal(t, Range{Start: 1, End: 2}, s.Slices["outer.inner"])
}

func TestParse_HiddenLinesNeverAppear(t *testing.T) {
	source := "// snippet.main\n" +
		"let a = 1\n" +
		"// snippet.hide\n" +
		"secret()\n" +
		"// snippet.show\n" +
		"let b = 2\n" +
		"// snippet.main.end\n"

	s := Parse(source)

	assert.Equal(t, []string{"let a = 1", "let b = 2"}, s.Presentation)
	assert.NotContains(t, strings.Join(s.Presentation, "\n"), "secret")
	// Slice coordinates skip the hidden region entirely.
	assert.Equal(t, Range{Start: 0, End: 2}, s.Slices["main"])
}

func TestParse_SliceStartForcesVisibility(t *testing.T) {
	source := "// snippet.hide\n" +
		"invisible()\n" +
		"// snippet.visible\n" +
		"shown()\n"

	s := Parse(source)

	assert.Equal(t, []string{"shown()"}, s.Presentation)
	assert.Equal(t, Range{Start: 0, End: 1}, s.Slices["visible"])
}

func TestParse_DanglingSliceDiscarded(t *testing.T) {
	source := "let x = 1\n" +
		"// snippet.late\n"

	s := Parse(source)

	assert.Equal(t, []string{"let x = 1"}, s.Presentation)
	assert.Empty(t, s.Slices)
}

func TestParse_SliceRangeTrimmedOffBlankLines(t *testing.T) {
	source := "before()\n" +
		"// snippet.mid\n" +
		"\n" +
		"mid()\n" +
		"\n" +
		"// snippet.mid.end\n"

	s := Parse(source)

	assert.Equal(t, []string{"before()", "", "mid()"}, s.Presentation)
	assert.Equal(t, Range{Start: 2, End: 3}, s.Slices["mid"])
}

func TestParse_DocCommentsAndVisibilityAnnotationsSkipped(t *testing.T) {
	source := "// snippet.main\n" +
		"/// A doc comment.\n" +
		"@_documentation(visibility: internal)\n" +
		"code()\n" +
		"// snippet.main.end\n"

	s := Parse(source)

	assert.Equal(t, []string{"code()"}, s.Presentation)
	assert.Equal(t, Range{Start: 0, End: 1}, s.Slices["main"])
}

func TestParse_MarkerKeywordCaseInsensitive(t *testing.T) {
	source := "// SNIPPET.Main\n" +
		"code()\n" +
		"// Snippet.Main.END\n" +
		"tail()\n"

	s := Parse(source)

	// The keyword and operations fold case; identifiers keep theirs.
	require.Contains(t, s.Slices, "Main")
	assert.Equal(t, Range{Start: 0, End: 1}, s.Slices["Main"])
}

func TestParse_NonMarkersFallThroughAsContent(t *testing.T) {
	for _, line := range []string{
		"// snippet",
		"// snippet.",
		"// snipped.main",
		"// not a marker",
	} {
		s := Parse("anchor()\n" + line + "\n")
		assert.Equal(t, []string{"anchor()", line}, s.Presentation, "line %q", line)
		assert.Empty(t, s.Slices, "line %q", line)
	}
}

func TestParse_BlankInteriorLinesDoNotConstrainIndentation(t *testing.T) {
	source := "func demo() {\n" +
		"    let x = 1\n" +
		"\n" +
		"    let y = 2\n" +
		"}\n"

	s := Parse(source)

	// The blank interior line never reduces the common indentation, and the
	// top-level braces keep the minimum at zero here.
	assert.Equal(t, []string{"func demo() {", "    let x = 1", "", "    let y = 2", "}"}, s.Presentation)

	indented := "    let x = 1\n" +
		"\n" +
		"    let y = 2\n"
	assert.Equal(t, []string{"let x = 1", "", "let y = 2"}, Parse(indented).Presentation)
}

func TestParse_RangeInvariantsHold(t *testing.T) {
	sources := []string{
		"// snippet.a\none\n\ntwo\n// snippet.a.end\n",
		"// snippet.a.b\n\n\n// snippet.end\ncode\n",
		"// snippet.x\ncode\n// snippet.y\nmore\n// snippet.end\n",
		"\n\n// snippet.only\n// snippet.only.end\n",
		"code\n// snippet.a\n\n\n// snippet.a.end\n",
		"one\n// snippet.tail\n\n// snippet.tail.end\n\n",
	}
	for _, source := range sources {
		s := Parse(source)
		for name, r := range s.Slices {
			assert.GreaterOrEqual(t, r.Start, 0, "slice %q in %q", name, source)
			assert.LessOrEqual(t, r.Start, r.End, "slice %q in %q", name, source)
			assert.LessOrEqual(t, r.End, len(s.Presentation), "slice %q in %q", name, source)
			if r.End > r.Start {
				assert.False(t, isBlank(s.Presentation[r.Start]), "slice %q starts blank", name)
				assert.False(t, isBlank(s.Presentation[r.End-1]), "slice %q ends blank", name)
			}
		}
	}
}

func TestParse_BlankOnlySliceInTrimmedTail(t *testing.T) {
	// The slice body is blank lines that trailing-trim removes from the
	// presentation; its range must collapse inside the final bounds.
	s := Parse("code\n// snippet.a\n\n\n// snippet.a.end\n")

	assert.Equal(t, []string{"code"}, s.Presentation)
	r, ok := s.Slices["a"]
	require.True(t, ok)
	assert.Equal(t, r.Start, r.End, "blank-only slice must trim to empty")
	assert.LessOrEqual(t, r.End, len(s.Presentation))
}

func TestParse_IdempotentOnPresentation(t *testing.T) {
	source := "// Explanation.\n" +
		"// snippet.main\n" +
		"    if ready {\n" +
		"        go()\n" +
		"    }\n" +
		"// snippet.main.end\n"

	first := Parse(source)
	second := Parse(strings.Join(first.Presentation, "\n"))

	assert.Equal(t, first.Presentation, second.Presentation)
	assert.Empty(t, second.Slices)
}

func TestParse_EmptyAndDegenerateInput(t *testing.T) {
	for _, source := range []string{"", "\n", "   \n\t\n", "// snippet.a\n"} {
		s := Parse(source)
		assert.Empty(t, s.Presentation, "source %q", source)
		assert.Empty(t, s.Slices, "source %q", source)
	}
}
