package filler

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"resume-filler/internal/contact"
	"resume-filler/internal/domain"
	"resume-filler/internal/model"
)

// BulletMarker is the token the extractor keeps in front of bullet lines.
const BulletMarker = "_•_"

type category int

const (
	categoryDefault category = iota
	categorySkills
	categoryAchievements
	categoryCoursework
	categoryTimeline
)

// categories are checked in order; the first matching keyword wins.
var categories = []struct {
	cat      category
	keywords []string
}{
	{categorySkills, []string{"skill", "technical"}},
	{categoryAchievements, []string{"achievement", "award"}},
	{categoryCoursework, []string{"coursework", "course"}},
	{categoryTimeline, []string{"experience", "education", "project", "position", "responsibility"}},
}

func categoryOf(sectionName string) category {
	lower := strings.ToLower(sectionName)
	for _, c := range categories {
		for _, k := range c.keywords {
			if strings.Contains(lower, k) {
				return c.cat
			}
		}
	}
	return categoryDefault
}

var fallbackPage = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Name}}</title>
<style>
body { font-family: 'Inter', -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; background: #f3f4f6; color: #1f2937; margin: 0; padding: 2em 1em; }
.container { max-width: 850px; margin: 0 auto; background: #fff; padding: 2.5em 3em; border-radius: 8px; box-shadow: 0 4px 20px rgba(0,0,0,0.08); }
header { text-align: center; border-bottom: 2px solid #e5e7eb; padding-bottom: 1.2em; margin-bottom: 1.5em; }
h1 { margin: 0; font-size: 2.2em; color: #111827; }
address { font-style: normal; color: #4b5563; }
h2 { font-size: 1.25em; text-transform: uppercase; letter-spacing: 0.05em; color: #1e3a8a; border-bottom: 1px solid #e5e7eb; padding-bottom: 0.3em; }
h3 { font-size: 1.05em; margin: 0.8em 0 0.2em; color: #111827; }
ul { margin: 0.5em 0 0.5em 1.2em; padding-left: 0; }
li { margin: 0.35em 0; line-height: 1.6; color: #374151; }
p { margin: 0.4em 0; line-height: 1.6; color: #374151; }
a { color: #3b82f6; text-decoration: none; font-weight: 600; }
a:hover { color: #2563eb; text-decoration: underline; }
.section { margin-bottom: 2em; }
.subsection { margin-bottom: 1.2em; }
.contact-links { margin-top: 0.6em; }
.separator { margin: 0 0.4em; color: #9ca3af; }
@media print {
  body { background: white; padding: 0; }
  .container { box-shadow: none; padding: 1em; }
}
</style>
</head>
<body>
<div class="container">
<header>
<h1>{{.Name}}</h1>
<address>
{{- if .Links}}
<div class="contact-links">{{.Links}}</div>
{{- end}}
{{- if .Contact}}
<div class="contact-line">{{.Contact}}</div>
{{- end}}
</address>
</header>
{{.Sections}}</div>
</body>
</html>
`))

const separator = ` <span class="separator">•</span> `

// RenderFallback renders the record into a plain, self-contained HTML page
// without looking at any template. Every non-empty section is rendered in
// order. It only fails with domain.ErrNoRenderableContent when nothing is
// left after filtering.
func RenderFallback(rec model.ResumeRecord) (string, error) {
	rec = rec.Filter()
	if len(rec.Sections) == 0 {
		return "", domain.ErrNoRenderableContent
	}
	info := contact.DeriveMetadata(rec)
	return renderFallback(rec, info), nil
}

func renderFallback(rec model.ResumeRecord, info model.ContactInfo) string {
	name := info.Name
	if name == "" {
		name = "Resume"
	}
	var contactLine []string
	if info.Email != "" {
		contactLine = append(contactLine, text(info.Email))
	}
	if info.Phone != "" {
		contactLine = append(contactLine, html.EscapeString(info.Phone))
	}

	var sections strings.Builder
	for _, sec := range rec.Sections {
		sections.WriteString(`<section class="section">` + "\n")
		sections.WriteString("<h2>" + html.EscapeString(sec.Name) + "</h2>\n")
		cat := categoryOf(sec.Name)
		for _, sub := range sec.Subsections {
			sections.WriteString(renderSubsection(sub, cat))
		}
		sections.WriteString("</section>\n")
	}

	var buf bytes.Buffer
	err := fallbackPage.Execute(&buf, struct {
		Name     string
		Links    template.HTML
		Contact  template.HTML
		Sections template.HTML
	}{
		Name:     name,
		Links:    template.HTML(strings.Join(info.Anchors(), separator)),
		Contact:  template.HTML(strings.Join(contactLine, separator)),
		Sections: template.HTML(sections.String()),
	})
	if err != nil {
		// static template, in-memory writer
		panic(err)
	}
	return buf.String()
}

func renderSubsection(sub model.Subsection, cat category) string {
	title := strings.TrimSpace(sub.Title)
	lines := nonBlank(sub.Data)
	var sb strings.Builder
	sb.WriteString(`<div class="subsection">` + "\n")

	switch cat {
	case categorySkills:
		joined := text(strings.Join(cleaned(lines), ", "))
		if title != "" {
			sb.WriteString("<p><strong>" + text(title) + ":</strong> " + joined + "</p>\n")
		} else {
			sb.WriteString("<p>" + joined + "</p>\n")
		}

	case categoryAchievements:
		sb.WriteString("<ul>\n")
		if title != "" {
			sb.WriteString("<li><strong>" + text(title) + ":</strong> " + text(strings.Join(cleaned(lines), " ")) + "</li>\n")
		} else {
			writeItems(&sb, lines)
		}
		sb.WriteString("</ul>\n")

	case categoryCoursework:
		if title != "" {
			sb.WriteString("<p><strong>" + text(title) + ":</strong></p>\n")
		}
		sb.WriteString("<ul>\n")
		writeItems(&sb, lines)
		sb.WriteString("</ul>\n")

	case categoryTimeline:
		if title != "" {
			sb.WriteString("<h3>" + text(title) + "</h3>\n")
		}
		bullets := lines
		if len(lines) > 0 && !isBullet(lines[0]) {
			sb.WriteString("<p>" + text(clean(lines[0])) + "</p>\n")
			bullets = lines[1:]
		}
		if len(bullets) > 0 {
			sb.WriteString("<ul>\n")
			writeItems(&sb, bullets)
			sb.WriteString("</ul>\n")
		}

	default:
		if title != "" {
			sb.WriteString("<h3>" + text(title) + "</h3>\n")
		}
		if len(lines) > 0 {
			sb.WriteString("<ul>\n")
			writeItems(&sb, lines)
			sb.WriteString("</ul>\n")
		}
	}

	sb.WriteString("</div>\n")
	return sb.String()
}

func writeItems(sb *strings.Builder, lines []string) {
	for _, l := range lines {
		if c := clean(l); c != "" {
			sb.WriteString("<li>" + text(c) + "</li>\n")
		}
	}
}

func nonBlank(data []string) []string {
	out := make([]string, 0, len(data))
	for _, d := range data {
		if strings.TrimSpace(d) != "" {
			out = append(out, d)
		}
	}
	return out
}

func cleaned(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if c := clean(l); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func isBullet(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), BulletMarker)
}

// clean drops bullet markers and surrounding space.
func clean(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, BulletMarker, ""))
}

// text escapes s and turns URLs and emails into anchors.
func text(s string) string {
	return contact.Linkify(html.EscapeString(s))
}
