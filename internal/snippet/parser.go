// Package snippet extracts documentation snippets from source files.
//
// A snippet file is ordinary source code carrying comment directives:
//
//	// snippet.<id>[.<id>...]        open a named slice
//	// snippet.<id>[.<id>...].end    close slices at that depth and deeper
//	// snippet.show / snippet.hide   toggle visibility of subsequent lines
//
// A leading block of `//` comments becomes the snippet's explanation. Lines
// marked hidden, marker lines themselves, `///` doc comments and
// `@_documentation(visibility: ...)` annotations never reach the presentation
// body. Extraction is total: any input yields a well-formed Snippet.
package snippet

import "strings"

const markerKeyword = "snippet"

// Range is a half-open line range [Start, End) into a snippet's presentation
// lines. Ranges are trimmed so that neither endpoint lands on a blank line,
// which means a range may be empty.
type Range struct {
	Start int
	End   int
}

// Snippet is the extraction result for one source file.
type Snippet struct {
	// Explanation holds the leading comment block with comment prefixes and
	// common indentation removed.
	Explanation []string

	// Presentation holds the visibility-filtered, re-indented code body.
	Presentation []string

	// Slices maps dot-joined slice identifiers to line ranges into
	// Presentation.
	Slices map[string]Range
}

// Parse extracts a snippet from raw source text.
//
// It never fails: marker-free input degrades to a snippet whose presentation
// is the whole file (blank edges trimmed, common indentation removed) with no
// slices, and malformed directives are ignored or discarded rather than
// reported.
func Parse(source string) Snippet {
	lines := dropLeadingBlankLines(strings.Split(source, "\n"))

	explanation, rest := splitExplanation(lines)

	p := &parser{
		visible: true,
		open:    make(map[int]openSlice),
		slices:  make(map[string]Range),
	}
	for _, line := range rest {
		p.consume(line)
	}
	p.closeSlicesAt(0)

	body := stripIndentation(p.body, commonIndentation(p.body))
	body = trimTrailingBlankLines(body)

	// Ranges are trimmed against the pre-trim body, then clamped so a slice
	// sitting entirely in the trimmed-off blank tail cannot point past the
	// final presentation.
	for name, r := range p.slices {
		r = trimRange(p.body, r)
		if r.End > len(body) {
			r.End = len(body)
		}
		if r.Start > r.End {
			r.Start = r.End
		}
		p.slices[name] = r
	}

	return Snippet{
		Explanation:  explanation,
		Presentation: body,
		Slices:       p.slices,
	}
}

// openSlice tracks a slice that has been opened but not yet closed.
type openSlice struct {
	name  string
	start int
}

// parser is the single-pass extraction state. The line counter always equals
// len(body); slice coordinates are recorded in that space.
type parser struct {
	visible bool
	open    map[int]openSlice // keyed by nesting depth
	slices  map[string]Range
	body    []string
}

func (p *parser) consume(line string) {
	c := classifyLine(line)
	switch c.kind {
	case lineSkipped:
		// Not part of the presentation, does not advance the counter.

	case lineVisibility:
		p.visible = c.visible

	case lineStartSlice:
		depth := len(c.identifiers) - 1
		p.closeSlicesAt(depth)
		p.open[depth] = openSlice{
			name:  strings.Join(c.identifiers, "."),
			start: len(p.body),
		}
		// Opening a slice always reveals what follows.
		p.visible = true

	case lineEndSlice:
		p.closeSlicesAt(c.endIndex)

	case linePresentation:
		if p.visible && (len(p.body) > 0 || !isBlank(line)) {
			p.body = append(p.body, line)
		}
	}
}

// closeSlicesAt closes every open slice at nesting depth >= depth, recording
// its range as ending at the current line counter. A slice that no
// presentation line ever followed is discarded.
func (p *parser) closeSlicesAt(depth int) {
	for d, s := range p.open {
		if d < depth {
			continue
		}
		if len(p.body) > s.start {
			p.slices[s.name] = Range{Start: s.start, End: len(p.body)}
		}
		delete(p.open, d)
	}
}

// splitExplanation consumes the leading comment block: lines that are not
// blank, not markers, and start with `//` after leading whitespace. The
// consumed lines are returned with the comment prefix and common indentation
// stripped and blank edges trimmed; the remainder feeds the main pass.
func splitExplanation(lines []string) (explanation []string, rest []string) {
	consumed := 0
	for _, line := range lines {
		if isBlank(line) {
			break
		}
		if _, ok := parseMarker(line); ok {
			break
		}
		content, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "//")
		if !ok {
			break
		}
		explanation = append(explanation, content)
		consumed++
	}

	explanation = stripIndentation(explanation, commonIndentation(explanation))
	explanation = trimBlankEdges(explanation)
	return explanation, lines[consumed:]
}

type lineKind int

const (
	linePresentation lineKind = iota
	lineSkipped
	lineVisibility
	lineStartSlice
	lineEndSlice
)

type classified struct {
	kind        lineKind
	visible     bool     // for lineVisibility
	identifiers []string // for lineStartSlice
	endIndex    int      // for lineEndSlice
}

// classifyLine decides how the main pass reacts to one line. Marker detection
// wins over the documentation-only checks so that `// snippet.x` is never
// treated as content.
func classifyLine(line string) classified {
	if c, ok := parseMarker(line); ok {
		return c
	}

	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "///") || strings.HasPrefix(trimmed, "@_documentation(visibility") {
		return classified{kind: lineSkipped}
	}

	return classified{kind: linePresentation}
}

// parseMarker reports whether line is a snippet directive. The keyword and the
// show/hide/end operations compare case-insensitively; slice identifiers keep
// their original case.
func parseMarker(line string) (classified, bool) {
	content, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "//")
	if !ok {
		return classified{}, false
	}

	tokens := strings.Split(strings.TrimSpace(content), ".")
	if len(tokens) < 2 || !strings.EqualFold(strings.TrimSpace(tokens[0]), markerKeyword) {
		return classified{}, false
	}

	rest := make([]string, 0, len(tokens)-1)
	for _, tok := range tokens[1:] {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			// `// snippet.` and friends are not markers.
			return classified{}, false
		}
		rest = append(rest, tok)
	}

	switch strings.ToLower(rest[len(rest)-1]) {
	case "show":
		return classified{kind: lineVisibility, visible: true}, true
	case "hide":
		return classified{kind: lineVisibility, visible: false}, true
	case "end":
		ids := rest[:len(rest)-1]
		index := len(ids) - 1
		if index < 0 {
			index = 0
		}
		return classified{kind: lineEndSlice, endIndex: index}, true
	default:
		return classified{kind: lineStartSlice, identifiers: rest}, true
	}
}

// trimRange shrinks r inward so neither endpoint line is blank.
func trimRange(body []string, r Range) Range {
	for r.Start < r.End && isBlank(body[r.Start]) {
		r.Start++
	}
	for r.End > r.Start && isBlank(body[r.End-1]) {
		r.End--
	}
	return r
}
