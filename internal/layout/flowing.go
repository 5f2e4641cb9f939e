package layout

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"unicode"

	"resume-filler/internal/contact"
	"resume-filler/internal/loader"
	"resume-filler/internal/model"
)

const defaultFont = "Arial"

var flowingPage = template.Must(template.New("flowing").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: "{{.Font}}", Arial, sans-serif; max-width: 850px; margin: 0 auto; padding: 40px 60px; line-height: 1.6; color: #333; background: #fff; }
.resume-container { background: white; }
.resume-header { text-align: center; margin-bottom: 30px; border-bottom: 2px solid #333; padding-bottom: 20px; }
.name { font-size: 32px; font-weight: bold; margin-bottom: 10px; color: #1a1a1a; letter-spacing: 1px; }
.headline { font-size: 16px; color: #444; }
.contact-info { font-size: 14px; color: #555; margin-top: 10px; }
.contact-info a { color: #0066cc; text-decoration: none; }
.resume-section { margin: 25px 0; }
.section-header { font-size: 20px; font-weight: bold; border-bottom: 2px solid #666; margin: 25px 0 15px 0; padding-bottom: 5px; color: #2c3e50; text-transform: uppercase; letter-spacing: 0.5px; }
.subsection-title { font-size: 16px; font-weight: bold; color: #34495e; margin: 12px 0 6px 0; }
.resume-section p { margin: 6px 0; }
.resume-section ul { margin: 8px 0; padding-left: 20px; }
.resume-section li { margin: 4px 0; }
table { width: 100%; border-collapse: collapse; margin: 15px 0; }
table td { padding: 8px; border: 1px solid #ddd; }
@media print {
  body { padding: 20px; }
  .resume-section { page-break-inside: avoid; }
}
@media (max-width: 768px) {
  body { padding: 20px; }
  .name { font-size: 24px; }
  .section-header { font-size: 18px; }
}
</style>
</head>
<body>
<div class="resume-container">
{{.Body}}</div>
</body>
</html>
`))

// Deterministic builds a flowing template from the document blocks without
// any generator. The first block becomes the name, contact-looking lines
// before the first section heading form the header, headings and short
// upper-case lines open sections.
func Deterministic(doc *loader.Document) model.Template {
	font := defaultFont
	if len(doc.Layout.Fonts) > 0 {
		font = doc.Layout.Fonts[0]
	}
	b := &flowBuilder{}
	for _, blk := range doc.Layout.Blocks {
		b.add(blk)
	}
	b.finish()

	var buf bytes.Buffer
	err := flowingPage.Execute(&buf, struct {
		Font string
		Body template.HTML
	}{font, template.HTML(b.body.String())})
	if err != nil {
		// static template, in-memory writer
		panic(err)
	}
	return model.Template{HTML: buf.String(), Variant: model.VariantFlowing, Source: SourceDeterministic}
}

type flowBuilder struct {
	body       strings.Builder
	headerOpen bool
	headerDone bool
	hasName    bool
	inSection  bool
	list       bool
	table      bool
}

func (b *flowBuilder) add(blk loader.Block) {
	text := strings.TrimSpace(blk.Text)
	if blk.Kind != loader.BlockTableRow && text == "" {
		return
	}
	if !b.headerDone && b.header(blk, text) {
		return
	}
	switch {
	case blk.Kind == loader.BlockHeading && blk.Level >= 3:
		b.closeLists()
		b.ensureSection()
		b.body.WriteString(`<h3 class="subsection-title">` + safe(text) + "</h3>\n")
	case blk.Kind == loader.BlockHeading || (blk.Kind == loader.BlockParagraph && sectionLike(text)):
		b.openSection(text)
	case blk.Kind == loader.BlockListItem:
		b.ensureSection()
		if b.table {
			b.closeLists()
		}
		if !b.list {
			b.body.WriteString("<ul>\n")
			b.list = true
		}
		b.body.WriteString("<li>" + safe(text) + "</li>\n")
	case blk.Kind == loader.BlockTableRow:
		b.ensureSection()
		if b.list {
			b.closeLists()
		}
		if !b.table {
			b.body.WriteString("<table>\n")
			b.table = true
		}
		b.body.WriteString("<tr>")
		for _, c := range blk.Cells {
			b.body.WriteString("<td>" + safe(c) + "</td>")
		}
		b.body.WriteString("</tr>\n")
	default:
		b.closeLists()
		b.ensureSection()
		b.body.WriteString("<p>" + safe(text) + "</p>\n")
	}
}

// header consumes blocks that belong to the page header and reports
// whether blk was one of them.
func (b *flowBuilder) header(blk loader.Block, text string) bool {
	if !b.hasName {
		b.body.WriteString(`<div class="resume-header">` + "\n")
		b.headerOpen = true
		b.hasName = true
		if contactLike(text) || blk.Kind == loader.BlockTableRow {
			b.body.WriteString(`<h1 class="name">{{NAME}}</h1>` + "\n")
			if blk.Kind == loader.BlockTableRow {
				text = strings.Join(blk.Cells, " | ")
			}
			b.body.WriteString(`<div class="contact-info">` + safe(text) + "</div>\n")
			return true
		}
		b.body.WriteString(`<h1 class="name">` + safe(text) + "</h1>\n")
		return true
	}
	if blk.Kind == loader.BlockHeading || blk.Kind == loader.BlockListItem || blk.Kind == loader.BlockTableRow || sectionLike(text) {
		b.closeHeader()
		return false
	}
	if contactLike(text) {
		b.body.WriteString(`<div class="contact-info">` + safe(text) + "</div>\n")
	} else {
		b.body.WriteString(`<p class="headline">` + safe(text) + "</p>\n")
	}
	return true
}

func (b *flowBuilder) closeHeader() {
	if b.headerOpen {
		b.body.WriteString("</div>\n")
		b.headerOpen = false
	}
	b.headerDone = true
}

func (b *flowBuilder) openSection(title string) {
	b.closeLists()
	if b.inSection {
		b.body.WriteString("</div>\n")
	}
	b.body.WriteString(`<div class="resume-section">` + "\n")
	b.body.WriteString(`<h2 class="section-header">` + safe(title) + "</h2>\n")
	b.inSection = true
}

func (b *flowBuilder) ensureSection() {
	if !b.inSection {
		b.body.WriteString(`<div class="resume-section">` + "\n")
		b.inSection = true
	}
}

func (b *flowBuilder) closeLists() {
	if b.list {
		b.body.WriteString("</ul>\n")
		b.list = false
	}
	if b.table {
		b.body.WriteString("</table>\n")
		b.table = false
	}
}

func (b *flowBuilder) finish() {
	if !b.hasName {
		b.body.WriteString(`<div class="resume-header">` + "\n" + `<h1 class="name">{{NAME}}</h1>` + "\n")
		b.headerOpen = true
	}
	b.closeHeader()
	b.closeLists()
	if b.inSection {
		b.body.WriteString("</div>\n")
		b.inSection = false
	}
}

func safe(s string) string {
	return contact.Linkify(html.EscapeString(s))
}

// sectionLike matches short upper-case lines such as "EXPERIENCE".
func sectionLike(s string) bool {
	if len(s) >= 50 {
		return false
	}
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}

func contactLike(s string) bool {
	lower := strings.ToLower(s)
	if strings.Contains(s, "@") || strings.Contains(lower, "http") || strings.Contains(lower, "www.") {
		return true
	}
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 7
}
