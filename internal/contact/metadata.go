// Package contact derives display metadata from a résumé record and turns
// raw URLs and emails into anchors.
package contact

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"resume-filler/internal/model"

	"golang.org/x/net/publicsuffix"
)

var (
	contactKeywords = []string{"contact", "personal", "information", "name"}
	fieldKeywords   = []string{"email", "phone", "address", "location", "linkedin", "github"}
	headingWords    = map[string]bool{"contact": true, "information": true, "details": true, "personal": true, "info": true}

	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\(?\d{2,4}\)?[\s.-]?\d{2,4}[\s.-]?\d{2,9}`)
	githubPattern   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[^\s)<>"]+`)
	linkedinPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/[^\s)<>"]+`)
	yearRange       = regexp.MustCompile(`^\d{4}\s*[-–]\s*\d{4}$`)
	urlPattern      = regexp.MustCompile(`(?i)https?://[^\s)<>"]+|www\.[^\s)<>"]+`)
	domainPattern   = regexp.MustCompile(`(?i)^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]*[a-z0-9])?)+/?$`)
)

const (
	labelGitHub    = "GitHub"
	labelLinkedIn  = "LinkedIn"
	labelPortfolio = "Portfolio"
)

// DeriveMetadata extracts name, headline, email, phone and profile links
// from a record. It is pure and never fails: fields it cannot find are left
// blank.
func DeriveMetadata(rec model.ResumeRecord) model.ContactInfo {
	rec = rec.Filter()
	info := model.ContactInfo{Links: []model.Link{}, SectionsCount: len(rec.Sections)}
	seen := map[string]bool{}
	addLink := func(l model.Link) {
		a := l.Anchor()
		if seen[a] {
			return
		}
		seen[a] = true
		info.Links = append(info.Links, l)
	}

	foundContact := false
	for _, sec := range rec.Sections {
		if !isContactSection(sec.Name) {
			continue
		}
		foundContact = true
		for _, sub := range sec.Subsections {
			if info.Name == "" {
				info.Name = nameFromSubsection(sub)
			}
			for _, item := range sub.Data {
				scanItem(item, &info, addLink)
			}
		}
	}

	if !foundContact && info.Name == "" && len(rec.Sections) > 0 && len(rec.Sections[0].Subsections) > 0 {
		info.Name = strings.TrimSpace(rec.Sections[0].Subsections[0].Title)
	}

	for _, sec := range rec.Sections {
		if !strings.Contains(strings.ToLower(sec.Name), "experience") || len(sec.Subsections) == 0 {
			continue
		}
		if title := strings.TrimSpace(sec.Subsections[0].Title); title != "" {
			info.Title = title
			break
		}
	}
	return info
}

func isContactSection(name string) bool {
	lower := strings.ToLower(name)
	for _, k := range contactKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func nameFromSubsection(sub model.Subsection) string {
	if title := strings.TrimSpace(sub.Title); title != "" && plausibleName(title) && !hasFieldKeyword(title) {
		return title
	}
	if len(sub.Data) == 0 {
		return ""
	}
	first := strings.TrimSpace(sub.Data[0])
	if first == "" || strings.Contains(first, "@") || strings.Contains(strings.ToLower(first), "http") {
		return ""
	}
	if plausibleName(first) && !hasFieldKeyword(first) {
		return first
	}
	return ""
}

// plausibleName accepts 2 to 4 words of which at least half start with an
// upper-case letter.
func plausibleName(s string) bool {
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	capitalized := 0
	for _, w := range words {
		if r, _ := utf8.DecodeRuneInString(w); unicode.IsUpper(r) {
			capitalized++
		}
	}
	return capitalized*2 >= len(words)
}

// hasFieldKeyword rejects labels such as "Email Address" or "Contact
// Details" that look like names.
func hasFieldKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, k := range fieldKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	for _, w := range strings.Fields(lower) {
		if headingWords[strings.Trim(w, ":")] {
			return true
		}
	}
	return false
}

func scanItem(item string, info *model.ContactInfo, addLink func(model.Link)) {
	lower := strings.ToLower(item)

	if info.Email == "" {
		info.Email = emailPattern.FindString(item)
	}
	if info.Phone == "" {
		info.Phone = findPhone(item)
	}

	if m := githubPattern.FindString(item); m != "" {
		addLink(model.Link{Label: labelGitHub, URL: withScheme(m)})
	}
	if m := linkedinPattern.FindString(item); m != "" {
		addLink(model.Link{Label: labelLinkedIn, URL: withScheme(m)})
	}
	if strings.Contains(lower, "github") || strings.Contains(lower, "linkedin") {
		return
	}
	if m := urlPattern.FindString(item); m != "" {
		addLink(model.Link{Label: labelPortfolio, URL: withScheme(m)})
		return
	}
	if host, ok := bareDomain(item); ok {
		addLink(model.Link{Label: labelPortfolio, URL: "https://" + host})
	}
}

// findPhone returns the first phone-like run with 7 to 15 digits that is not
// a year range. Emails and URLs are blanked first so their digits are not
// mistaken for a number.
func findPhone(item string) string {
	cleaned := emailPattern.ReplaceAllString(item, " ")
	cleaned = urlPattern.ReplaceAllString(cleaned, " ")
	for _, m := range phonePattern.FindAllString(cleaned, -1) {
		digits := 0
		for _, r := range m {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		m = strings.TrimSpace(m)
		if digits >= 7 && digits <= 15 && !yearRange.MatchString(m) {
			return m
		}
	}
	return ""
}

// bareDomain accepts a data line that is nothing but a host name under an
// ICANN-managed public suffix, such as "janedoe.dev".
func bareDomain(item string) (string, bool) {
	host := strings.TrimSpace(item)
	if !domainPattern.MatchString(host) {
		return "", false
	}
	host = strings.ToLower(strings.TrimSuffix(host, "/"))
	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann || suffix == host {
		return "", false
	}
	if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
		return "", false
	}
	return host, true
}

func withScheme(u string) string {
	u = strings.TrimRight(u, trailingPunct)
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}
