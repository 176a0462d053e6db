// Package slug provides URL-safe slug generation for articles and categories.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	// whitespace matches runs of whitespace to be replaced with a hyphen.
	whitespace = regexp.MustCompile(`\s+`)
	// invalidChars matches anything that is not a word character or hyphen.
	invalidChars = regexp.MustCompile(`[^\w-]+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`--+`)
)

// Generate creates a URL-safe slug from the given text and appends the last
// four digits of the current time in milliseconds as a salt, so repeated
// titles still produce distinct slugs. The salt is best effort only: the
// store's unique constraint on the slug column is the real uniqueness
// guarantee.
// Example: "Hello, World!" → "hello-world-1234"
func Generate(text string) string {
	result := strings.ToLower(text)
	result = whitespace.ReplaceAllString(result, "-")
	result = invalidChars.ReplaceAllString(result, "")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	millis := fmt.Sprintf("%d", time.Now().UnixMilli())
	return result + "-" + millis[len(millis)-4:]
}
