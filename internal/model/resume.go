package model

import "strings"

// Go models that match resume.schema.json used for validating extraction
// output and for rendering.

type Subsection struct {
	Title string   `json:"title"`
	Data  []string `json:"data"`
}

// Empty reports whether the subsection has no line with visible text.
func (s Subsection) Empty() bool {
	for _, d := range s.Data {
		if strings.TrimSpace(d) != "" {
			return false
		}
	}
	return true
}

type Section struct {
	Name        string       `json:"section_name"`
	Subsections []Subsection `json:"subsections"`
}

// Empty reports whether every subsection of the section is empty.
func (s Section) Empty() bool {
	for _, sub := range s.Subsections {
		if !sub.Empty() {
			return false
		}
	}
	return true
}

// ResumeRecord is the canonical résumé content. Section order is display
// order.
type ResumeRecord struct {
	Sections []Section `json:"sections"`
}

// Filter drops empty subsections and then sections left without any
// subsection. The receiver is not modified. Filtering an already filtered
// record returns an equal record.
func (r ResumeRecord) Filter() ResumeRecord {
	out := ResumeRecord{Sections: []Section{}}
	for _, sec := range r.Sections {
		kept := []Subsection{}
		for _, sub := range sec.Subsections {
			if sub.Empty() {
				continue
			}
			data := make([]string, len(sub.Data))
			copy(data, sub.Data)
			kept = append(kept, Subsection{Title: sub.Title, Data: data})
		}
		if len(kept) == 0 {
			continue
		}
		out.Sections = append(out.Sections, Section{Name: sec.Name, Subsections: kept})
	}
	return out
}

// Renderable reports whether at least one non-empty section exists.
func (r ResumeRecord) Renderable() bool {
	for _, sec := range r.Sections {
		if !sec.Empty() {
			return true
		}
	}
	return false
}
