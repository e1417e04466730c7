package utils

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonSlugRegexp   = regexp.MustCompile(`[^a-z0-9]+`)
	separatorRegexp = regexp.MustCompile(`[-_]+`)
)

// Slugify lower-cases value and joins its alphanumeric runs with dashes.
// Empty input, or input without any ASCII letter or digit, yields "item".
func Slugify(value string) string {
	s := strings.ToLower(strings.TrimSpace(value))
	s = strings.Trim(nonSlugRegexp.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return "item"
	}
	return s
}

// TitleFromSlug turns "bonapriso-skyline_loft" into "Bonapriso Skyline Loft".
func TitleFromSlug(value string) string {
	s := strings.ToLower(strings.TrimSpace(separatorRegexp.ReplaceAllString(value, " ")))
	return cases.Title(language.Und).String(strings.Join(strings.Fields(s), " "))
}
