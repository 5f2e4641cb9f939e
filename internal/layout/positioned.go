package layout

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"html/template"
	"strings"

	"resume-filler/internal/contact"
	"resume-filler/internal/loader"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/ai/prompts"
)

var (
	boldTokens   = []string{"bold", "heavy", "black", "semibold", "demibold"}
	italicTokens = []string{"italic", "oblique"}
)

const (
	noTextPlaceholder = "No text found on this page"
	letterWidth       = 612.0
	letterHeight      = 792.0
)

var positionedPage = template.Must(template.New("positioned").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { margin: 0; padding: 20px; background: #e0e0e0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Arial, sans-serif; }
.page { position: relative; margin: 20px auto; background: white; box-shadow: 0 4px 12px rgba(0,0,0,0.15); page-break-after: always; }
.word { position: absolute; white-space: nowrap; color: #000; }
.empty { position: absolute; top: 50%; left: 50%; transform: translate(-50%,-50%); color: #999; font-size: 14px; }
a { color: #0066cc; text-decoration: underline; }
@media print {
  body { background: white; padding: 0; }
  .page { margin: 0; box-shadow: none; }
}
</style>
</head>
<body>
{{range .}}<div class="page" style="{{.Style}}">
{{range .Spans}}<span class="word" style="{{.Style}}">{{.Text}}</span>
{{else}}<p class="empty">{{.Placeholder}}</p>
{{end}}</div>
{{end}}</body>
</html>
`))

type pageView struct {
	Style       template.CSS
	Spans       []spanView
	Placeholder string
}

type spanView struct {
	Style template.CSS
	Text  template.HTML
}

func (e *Extractor) positioned(ctx context.Context, doc *loader.Document) model.Template {
	if doc.Format != loader.FormatPDF {
		return Deterministic(doc)
	}
	pages := doc.Layout.Pages
	if len(pages) == 0 {
		pages = []loader.Page{{Number: 1, Width: letterWidth, Height: letterHeight}}
	}
	raw, err := Positioned(pages)
	if err != nil {
		e.log.Warn("positioned template failed, using deterministic template", "error", err)
		return Deterministic(doc)
	}
	tpl := model.Template{HTML: raw, Variant: model.VariantPositioned, Source: SourcePositioned}
	if !e.opts.Refine {
		return tpl
	}
	refined, err := e.callGenerator(ctx, ai.Request{System: prompts.TemplateSystem, Prompt: prompts.TemplateRefine(raw)})
	switch {
	case err != nil:
		e.log.Warn("template refinement failed, keeping positioned template", "error", err)
	case len(strings.TrimSpace(refined)) < minGeneratedLength:
		e.log.Warn("template refinement too short, keeping positioned template", "length", len(refined))
	default:
		tpl.HTML = refined
		tpl.Source = SourceRefined
	}
	return tpl
}

// Positioned renders one absolutely positioned span per word. A page
// without words falls back to its glyphs and then to a placeholder.
func Positioned(pages []loader.Page) (string, error) {
	views := make([]pageView, 0, len(pages))
	for _, p := range pages {
		runs := p.Words
		if len(runs) == 0 {
			runs = p.Glyphs
		}
		v := pageView{
			Style:       template.CSS(fmt.Sprintf("width:%.2fpx; height:%.2fpx;", p.Width, p.Height)),
			Placeholder: noTextPlaceholder,
		}
		for _, r := range runs {
			if strings.TrimSpace(r.Text) == "" {
				continue
			}
			v.Spans = append(v.Spans, spanView{
				Style: template.CSS(fmt.Sprintf("left:%.2fpx; top:%.2fpx; font-size:%.2fpx; font-weight:%s; font-style:%s;",
					r.X, r.Top, r.Size, fontWeight(r.Font), fontStyle(r.Font))),
				Text: template.HTML(contact.Linkify(html.EscapeString(r.Text))),
			})
		}
		views = append(views, v)
	}
	var buf bytes.Buffer
	if err := positionedPage.Execute(&buf, views); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fontWeight(font string) string {
	if hasToken(font, boldTokens) {
		return "bold"
	}
	return "normal"
}

func fontStyle(font string) string {
	if hasToken(font, italicTokens) {
		return "italic"
	}
	return "normal"
}

func hasToken(font string, tokens []string) bool {
	lower := strings.ToLower(font)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
