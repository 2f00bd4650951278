// Package sanitize cleans user-provided text before it is stored.
package sanitize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)

	entities = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#39;", "'",
	)
)

// StripHTML removes tags, decodes the common entities and strips again so that encoded
// tags do not survive.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entities.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips markup and collapses runs of whitespace into a single space.
func Text(s string) string {
	return whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
}

// TextPtr applies Text to an optional value. Values that end up blank become nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	if result == "" {
		return nil
	}
	return &result
}

// Name cleans a personal name and title-cases it, so "  mary-ann  O'BRIEN" becomes
// "Mary-Ann O'brien".
func Name(s string) string {
	cleaned := Text(s)
	if cleaned == "" {
		return ""
	}
	return cases.Title(language.AmericanEnglish).String(cleaned)
}

// Email trims and lower-cases an address. Blank input becomes nil.
func Email(s *string) *string {
	v := TextPtr(s)
	if v == nil {
		return nil
	}
	lowered := strings.ToLower(*v)
	return &lowered
}
