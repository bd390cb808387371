package cmd

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-ten", truncate("exactly-ten", 11))
	assert.Equal(t, "long…", truncate("long name", 5))

	// Cutting inside a multibyte rune must not produce invalid UTF-8.
	got := truncate("Café Frühlingsrolle", 5)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Café…", got)
}
