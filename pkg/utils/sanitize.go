package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var captionPolicy = bluemonday.StrictPolicy()

// PlainCaption strips any markup from a backend supplied caption and
// returns readable plain text.
func PlainCaption(caption string) string {
	return strings.TrimSpace(html.UnescapeString(captionPolicy.Sanitize(caption)))
}
