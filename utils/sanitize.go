package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// SanitizeTag strips markup from a free-text location tag, decodes HTML
// entities and trims it. Catalog tag conditions pass through it too.
func SanitizeTag(input string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(input)))
}
