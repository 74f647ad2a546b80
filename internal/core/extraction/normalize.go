package extraction

import (
	"strings"
	"unicode"
)

// Normalize prepares raw document text for anchor matching: control
// characters are stripped, exotic spaces become plain spaces, runs of
// horizontal whitespace collapse to one space and blank lines are dropped.
// Line breaks survive because anchors work line by line.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	lastSpace := false
	lastNewline := true
	for _, r := range text {
		switch {
		case r == '\n' || r == '\r':
			if !lastNewline {
				b.WriteByte('\n')
				lastNewline = true
				lastSpace = false
			}
		case unicode.IsSpace(r):
			if !lastSpace && !lastNewline {
				b.WriteByte(' ')
				lastSpace = true
			}
		case unicode.IsControl(r):
			// drop
		default:
			b.WriteRune(r)
			lastSpace = false
			lastNewline = false
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
