package layout

import (
	"context"
	"fmt"
	"strings"

	"resume-filler/internal/domain"
	"resume-filler/internal/loader"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"
	"resume-filler/pkg/ai/prompts"

	"github.com/PuerkitoBio/goquery"
)

func (e *Extractor) generative(ctx context.Context, doc *loader.Document) model.Template {
	out, err := e.callGenerator(ctx, ai.Request{
		System: prompts.TemplateSystem,
		Prompt: prompts.TemplateReconstruction(doc.Text, DescribeLayout(doc.Layout)),
	})
	if err == nil {
		err = checkGenerated(out)
	}
	if err != nil {
		e.log.Warn("using deterministic template", "error", fmt.Errorf("%w: %w", domain.ErrTemplateGenerationDegraded, err))
		tpl := Deterministic(doc)
		tpl.Degraded = true
		return tpl
	}
	return model.Template{HTML: out, Variant: model.VariantFlowing, Source: SourceGenerated}
}

// checkGenerated rejects output that is too short to be a template or has
// no markup inside its body.
func checkGenerated(out string) error {
	if n := len(strings.TrimSpace(out)); n < minGeneratedLength {
		return fmt.Errorf("generated template too short (%d chars)", n)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		return fmt.Errorf("parse generated template: %w", err)
	}
	if doc.Find("body *").Length() == 0 {
		return fmt.Errorf("generated template has no body elements")
	}
	return nil
}

// DescribeLayout summarizes fonts, colors, page geometry and paragraph
// styles for the reconstruction prompt.
func DescribeLayout(l loader.Layout) string {
	var parts []string
	if len(l.Fonts) > 0 {
		parts = append(parts, "Fonts used: "+strings.Join(l.Fonts, ", "))
	}
	if len(l.Colors) > 0 {
		parts = append(parts, "Colors used: "+strings.Join(l.Colors, ", "))
	}
	if len(l.Pages) > 0 {
		parts = append(parts, fmt.Sprintf("Number of pages: %d", len(l.Pages)))
		parts = append(parts, fmt.Sprintf("Page dimensions: %gx%g", l.Pages[0].Width, l.Pages[0].Height))
	}
	if len(l.Styles) > 0 {
		parts = append(parts, "Document styles: "+strings.Join(l.Styles, ", "))
	}
	if len(parts) == 0 {
		return "No layout information available."
	}
	return strings.Join(parts, "\n")
}
