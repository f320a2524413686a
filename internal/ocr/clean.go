package ocr

import (
	"regexp"
	"strings"
)

var reWhitespace = regexp.MustCompile(`\s+`)

// Clean normalizes recognized text: runs of whitespace become one space,
// lines are trimmed, empty lines dropped and the whole text trimmed.
// Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	text = reWhitespace.ReplaceAllString(text, " ")

	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
