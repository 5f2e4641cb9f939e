package contact

import (
	"regexp"
	"strings"
)

var (
	existingAnchor = regexp.MustCompile(`(?is)<a\b[^>]*>.*?</a>`)
	// email address | http(s) URL | www. URL
	linkCandidate = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}|(?i:https?://[^\s<>"']+|\bwww\.[^\s<>"']+)`)
)

const trailingPunct = ".,;:!?)]}"

// Linkify wraps URLs (http://, https://, www.) and email addresses found in
// HTML-safe text into anchors. Content already inside <a>...</a> is left as
// is, so applying Linkify to its own output changes nothing.
func Linkify(text string) string {
	if text == "" {
		return text
	}
	var sb strings.Builder
	last := 0
	for _, loc := range existingAnchor.FindAllStringIndex(text, -1) {
		sb.WriteString(linkifyPlain(text[last:loc[0]]))
		sb.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(linkifyPlain(text[last:]))
	return sb.String()
}

func linkifyPlain(s string) string {
	matches := linkCandidate.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		match := s[m[0]:m[1]]
		core := strings.TrimRight(match, trailingPunct)
		if !hasTarget(core) {
			continue
		}
		sb.WriteString(s[last:m[0]])
		sb.WriteString(anchorFor(core))
		sb.WriteString(match[len(core):])
		last = m[1]
	}
	sb.WriteString(s[last:])
	return sb.String()
}

// hasTarget reports whether a trimmed candidate still has something after
// its scheme or www. prefix, or is an email address.
func hasTarget(core string) bool {
	lower := strings.ToLower(core)
	for _, prefix := range []string{"http://", "https://", "www."} {
		if strings.HasPrefix(lower, prefix) {
			return len(core) > len(prefix)
		}
	}
	return strings.Contains(core, "@")
}

func anchorFor(target string) string {
	lower := strings.ToLower(target)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return `<a href="` + target + `" target="_blank">` + target + `</a>`
	case strings.HasPrefix(lower, "www."):
		return `<a href="https://` + target + `" target="_blank">` + target + `</a>`
	default:
		return `<a href="mailto:` + target + `">` + target + `</a>`
	}
}
