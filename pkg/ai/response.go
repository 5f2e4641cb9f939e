package ai

import (
	"regexp"
	"strings"
)

var (
	fencedBlock   = regexp.MustCompile("```(?:[A-Za-z0-9_+-]+)?\\s*([\\s\\S]*?)```")
	documentStart = regexp.MustCompile(`(?i)<!doctype\b|<html[\s>]`)
	documentEnd   = regexp.MustCompile(`(?i)</html\s*>`)
)

// FencedPayload returns the contents of the first fenced code block in s,
// or s itself (trimmed) when there is none.
func FencedPayload(s string) string {
	if m := fencedBlock.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// StripFences removes a leading ```lang line and a trailing ``` from a
// response that wraps a whole document.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") && fencedBlock.MatchString(s) {
		return FencedPayload(s)
	}
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// EnsureDoctype prefixes an HTML document with a doctype declaration when
// it does not already start with one.
func EnsureDoctype(html string) string {
	html = strings.TrimSpace(html)
	if strings.HasPrefix(strings.ToLower(html), "<!doctype") {
		return html
	}
	return "<!DOCTYPE html>\n" + html
}

// TrimToDocument drops text around a complete HTML document: everything
// before the first doctype or <html> tag and after the last </html>.
// Fragments without an <html> or doctype are returned unchanged.
func TrimToDocument(s string) string {
	start := documentStart.FindStringIndex(s)
	if start == nil {
		return s
	}
	s = s[start[0]:]
	ends := documentEnd.FindAllStringIndex(s, -1)
	if len(ends) == 0 {
		return s
	}
	return s[:ends[len(ends)-1][1]]
}

// CleanHTML strips code fences and surrounding prose and guarantees a
// leading doctype.
func CleanHTML(s string) string {
	return EnsureDoctype(TrimToDocument(StripFences(s)))
}
