// Package indent strips one level of common leading indentation from a
// block of source code, the way an inline script embedded in a config
// file needs de-indenting before it can be parsed as a standalone
// snippet. Ported from strip_leading_indentation.cpp: find the first
// non-whitespace character of every line, take the longest common prefix
// of those leading-whitespace runs across all non-blank lines, then trim
// that prefix from every line.
package indent

import "strings"

// Strip removes the common leading indentation from code, a
// newline-delimited multiline string. A blank line (or one that is only
// whitespace) does not participate in computing the common prefix. If
// code has no indentation to strip, it is returned unchanged.
func Strip(code string) string {
	indentation := ""
	start := true
	for _, line := range splitKeepNewline(code) {
		x := strings.IndexFunc(line, func(r rune) bool { return r != ' ' && r != '\t' && r != '\n' })
		if x == -1 {
			continue
		}
		lineIndent := line[:x]
		if start {
			indentation = lineIndent
			start = false
		} else {
			indentation = commonPrefix(indentation, lineIndent)
		}
	}
	if indentation == "" {
		return code
	}
	var b strings.Builder
	for _, line := range splitKeepNewline(code) {
		b.WriteString(strings.TrimPrefix(line, indentation))
	}
	return b.String()
}

// splitKeepNewline splits s into lines, each retaining its trailing '\n'
// (the final line keeps none if s doesn't end in one).
func splitKeepNewline(s string) []string {
	var lines []string
	for len(s) > 0 {
		i := strings.IndexByte(s, '\n')
		if i == -1 {
			lines = append(lines, s)
			break
		}
		lines = append(lines, s[:i+1])
		s = s[i+1:]
	}
	return lines
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}
