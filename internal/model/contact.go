package model

import (
	"fmt"
	"html"
)

// Link is a labelled profile URL such as GitHub or LinkedIn.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Anchor renders the link as an HTML anchor.
func (l Link) Anchor() string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(l.URL), html.EscapeString(l.Label))
}

// ContactInfo is display metadata derived from a ResumeRecord. It is never
// authoritative and can always be derived again from the record.
type ContactInfo struct {
	Name          string `json:"name"`
	Title         string `json:"title"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Links         []Link `json:"links"`
	SectionsCount int    `json:"sections_count"`
}

// Anchors renders every link in order.
func (c ContactInfo) Anchors() []string {
	out := make([]string, 0, len(c.Links))
	for _, l := range c.Links {
		out = append(out, l.Anchor())
	}
	return out
}
