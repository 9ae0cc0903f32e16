package scrub

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringStripsControlCharacters(t *testing.T) {
	assert.Equal(t, "helloworld", String("hello\nworld"))
	assert.Equal(t, "ab", String("a\x00\x1b\x7fb"))
	assert.Equal(t, "plain text", String("plain text"))
}

func TestStringTruncates(t *testing.T) {
	long := strings.Repeat("x", 500)
	got := String(long)
	assert.Len(t, got, 200)
}

func TestStringEmpty(t *testing.T) {
	assert.Equal(t, "", String(""))
}
