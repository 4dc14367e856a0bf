package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTextStripsMarkup(t *testing.T) {
	assert.Equal(t, "こんにちは 世界", SanitizeText("<b>こんにちは</b> 世界"))
	assert.Equal(t, "", SanitizeText("<img src=x onerror=alert(1)>"))
	assert.Equal(t, "link", SanitizeText(`<a href="https://example.com">link</a>`))
}

func TestSanitizeTextKeepsLiterals(t *testing.T) {
	// Entities introduced by the sanitizer fold back to plain characters.
	assert.Equal(t, "a & b", SanitizeText("a & b"))
	assert.Equal(t, "1 < 2", SanitizeText("1 < 2"))
}

func TestSanitizeTextTrims(t *testing.T) {
	assert.Equal(t, "hello", SanitizeText("  hello \n"))
	assert.Equal(t, "", SanitizeText("   \t  "))
}
