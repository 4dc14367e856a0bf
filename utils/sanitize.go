package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.StrictPolicy()

// SanitizeText reduces user input to plain text: all markup is stripped,
// entities are folded back to their literal characters, and surrounding
// whitespace is trimmed. Posts and comments are plain text only, so length
// checks run on the output of this function.
func SanitizeText(input string) string {
	return strings.TrimSpace(html.UnescapeString(sanitizer.Sanitize(input)))
}
