package ocr

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...(truncated)", truncate("abcdef", 3))

	// "é" is two bytes; a cut inside it backs off to the rune start.
	got := truncate("aé"+strings.Repeat("z", 10), 2)
	assert.Equal(t, "a...(truncated)", got)
	assert.True(t, utf8.ValidString(got))

	got = truncate(strings.Repeat("€", 5), 7)
	assert.Equal(t, "€€...(truncated)", got)
	assert.True(t, utf8.ValidString(got))
}
