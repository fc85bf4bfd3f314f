package snippet

import "strings"

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

func dropLeadingBlankLines(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[0]) {
		lines = lines[1:]
	}
	return lines
}

func trimTrailingBlankLines(lines []string) []string {
	for len(lines) > 0 && isBlank(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func trimBlankEdges(lines []string) []string {
	return trimTrailingBlankLines(dropLeadingBlankLines(lines))
}

// indentWidth counts leading space and tab characters.
func indentWidth(line string) int {
	n := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		n++
	}
	return n
}

// commonIndentation returns the minimum indentation across lines with
// content. Blank lines contribute no constraint, so snippets with blank
// interior lines still re-indent by the full shared amount.
func commonIndentation(lines []string) int {
	minIndent := -1
	for _, line := range lines {
		if isBlank(line) {
			continue
		}
		if n := indentWidth(line); minIndent < 0 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent < 0 {
		return 0
	}
	return minIndent
}

// stripIndentation removes up to n leading whitespace characters from every
// line, never more than a line actually has.
func stripIndentation(lines []string, n int) []string {
	if n <= 0 || len(lines) == 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		k := indentWidth(line)
		if k > n {
			k = n
		}
		out[i] = line[k:]
	}
	return out
}
