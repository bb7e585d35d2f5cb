package feed

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// CleanText strips markup, decodes entities and collapses whitespace runs into single spaces.
func CleanText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	stripped := html.UnescapeString(stripPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(stripped), " ")
}
