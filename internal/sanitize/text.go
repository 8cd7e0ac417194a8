package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// Text strips markup from user-entered plain text (display names, reminder labels)
// and trims surrounding whitespace. Entities escaped by the policy are decoded again
// since the result is stored and served as JSON, not HTML.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// OptionalText applies Text to a non-nil pointer. A value that is blank after
// sanitizing becomes nil.
func OptionalText(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	if out == "" {
		return nil
	}
	return &out
}
