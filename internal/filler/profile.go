package filler

import (
	"strings"

	"resume-filler/internal/model"
)

var banner = strings.Repeat("=", 60)

// ProfileText flattens a record into the readable form handed to the
// generator: a banner per section, "### title" per subsection and one
// "  • line" per non-blank data line.
func ProfileText(rec model.ResumeRecord) string {
	var lines []string
	for _, sec := range rec.Sections {
		lines = append(lines, "", banner, "SECTION: "+sec.Name, banner)
		for _, sub := range sec.Subsections {
			if t := strings.TrimSpace(sub.Title); t != "" {
				lines = append(lines, "", "### "+t)
			}
			for _, item := range sub.Data {
				if strings.TrimSpace(item) != "" {
					lines = append(lines, "  • "+item)
				}
			}
		}
	}
	return strings.Join(lines, "\n")
}
