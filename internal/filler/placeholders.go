package filler

import (
	"html"
	"regexp"
	"strings"

	"resume-filler/internal/model"
)

var placeholderPattern = regexp.MustCompile(`(?i)\{\{\s*(name|email|phone|linkedin|github|website)\s*\}\}`)

// ReplacePlaceholders substitutes {{NAME}}, {{EMAIL}}, {{PHONE}},
// {{LINKEDIN}}, {{GITHUB}} and {{WEBSITE}} in any letter case with the
// derived contact values. Placeholders without a value are removed.
func ReplacePlaceholders(doc string, info model.ContactInfo) string {
	values := map[string]string{
		"name":     info.Name,
		"email":    info.Email,
		"phone":    info.Phone,
		"linkedin": linkURL(info, "LinkedIn"),
		"github":   linkURL(info, "GitHub"),
		"website":  linkURL(info, "Portfolio"),
	}
	return placeholderPattern.ReplaceAllStringFunc(doc, func(m string) string {
		key := strings.ToLower(placeholderPattern.FindStringSubmatch(m)[1])
		return html.EscapeString(values[key])
	})
}

// HasPlaceholders reports whether doc still contains a known placeholder.
func HasPlaceholders(doc string) bool {
	return placeholderPattern.MatchString(doc)
}

func linkURL(info model.ContactInfo, label string) string {
	for _, l := range info.Links {
		if l.Label == label {
			return l.URL
		}
	}
	return ""
}
