package layout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"resume-filler/internal/loader"
	"resume-filler/internal/model"
	"resume-filler/pkg/ai"

	"github.com/PuerkitoBio/goquery"
)

type stubGenerator struct {
	out   string
	err   error
	calls int
	last  ai.Request
}

func (s *stubGenerator) Generate(_ context.Context, req ai.Request) (string, error) {
	s.calls++
	s.last = req
	return s.out, s.err
}

func sampleDoc() *loader.Document {
	return &loader.Document{
		Name:   "resume.docx",
		Format: loader.FormatDOCX,
		Text:   "# Jane Doe\njane@example.com\n# Experience\n- Built systems",
		Layout: loader.Layout{
			Fonts:  []string{"Calibri"},
			Colors: []string{"#1F4E79"},
			Styles: []string{"Title", "heading 1"},
			Pages:  []loader.Page{{Number: 1, Width: 595.3, Height: 841.9}},
			Blocks: []loader.Block{
				{Kind: loader.BlockHeading, Level: 1, Text: "Jane Doe"},
				{Kind: loader.BlockParagraph, Text: "jane@example.com | +1 555 123 4567"},
				{Kind: loader.BlockParagraph, Text: "Backend engineer"},
				{Kind: loader.BlockHeading, Level: 1, Text: "Experience"},
				{Kind: loader.BlockHeading, Level: 3, Text: "Engineer, Acme"},
				{Kind: loader.BlockListItem, Text: "Built systems"},
				{Kind: loader.BlockListItem, Text: "Led team"},
				{Kind: loader.BlockParagraph, Text: "SKILLS"},
				{Kind: loader.BlockTableRow, Cells: []string{"Go", "Expert"}},
			},
		},
	}
}

func parseHTML(t *testing.T, s string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// ── deterministic template ─────────────────────────────────────────────────

func TestDeterministic_Structure(t *testing.T) {
	tpl := Deterministic(sampleDoc())
	if tpl.Variant != model.VariantFlowing || tpl.Source != SourceDeterministic {
		t.Errorf("Variant/Source = %q/%q", tpl.Variant, tpl.Source)
	}
	if !strings.HasPrefix(tpl.HTML, "<!DOCTYPE html>") {
		t.Errorf("missing doctype")
	}
	doc := parseHTML(t, tpl.HTML)
	if got := doc.Find(".resume-header .name").Text(); got != "Jane Doe" {
		t.Errorf("name = %q", got)
	}
	if doc.Find(".resume-header .contact-info a[href='mailto:jane@example.com']").Length() != 1 {
		t.Errorf("contact line not linkified: %s", tpl.HTML)
	}
	if got := doc.Find(".resume-header .headline").Text(); got != "Backend engineer" {
		t.Errorf("headline = %q", got)
	}
	headers := doc.Find(".resume-section .section-header")
	if headers.Length() != 2 || headers.Eq(0).Text() != "Experience" || headers.Eq(1).Text() != "SKILLS" {
		t.Errorf("section headers = %d %q", headers.Length(), headers.Text())
	}
	if doc.Find(".resume-section ul li").Length() != 2 {
		t.Errorf("list items = %d", doc.Find("ul li").Length())
	}
	if doc.Find("table td").Length() != 2 {
		t.Errorf("table cells = %d", doc.Find("table td").Length())
	}
	if !strings.Contains(tpl.HTML, `font-family: "Calibri"`) && !strings.Contains(tpl.HTML, `font-family: "Calibri",`) {
		t.Errorf("primary font not applied")
	}
}

func TestDeterministic_NameFromContactLine(t *testing.T) {
	doc := &loader.Document{Layout: loader.Layout{Blocks: []loader.Block{
		{Kind: loader.BlockParagraph, Text: "jane@example.com"},
	}}}
	tpl := Deterministic(doc)
	if !strings.Contains(tpl.HTML, `<h1 class="name">{{NAME}}</h1>`) {
		t.Errorf("name placeholder missing: %s", tpl.HTML)
	}
}

func TestDeterministic_EmptyDocument(t *testing.T) {
	tpl := Deterministic(&loader.Document{})
	if !strings.Contains(tpl.HTML, "{{NAME}}") {
		t.Errorf("empty document should still carry the name placeholder")
	}
}

// ── positioned strategy ────────────────────────────────────────────────────

func pdfDoc(pages ...loader.Page) *loader.Document {
	return &loader.Document{Name: "r.pdf", Format: loader.FormatPDF, Layout: loader.Layout{Pages: pages}}
}

func TestPositioned_WordsGlyphsPlaceholder(t *testing.T) {
	pages := []loader.Page{
		{Number: 1, Width: 612, Height: 792, Words: []loader.Run{
			{Text: "Jane", X: 10, Top: 20, Size: 18, Font: "Helvetica-Bold"},
			{Text: "a@b.com", X: 10, Top: 50, Size: 10, Font: "Helvetica-Oblique"},
		}},
		{Number: 2, Width: 612, Height: 792, Glyphs: []loader.Run{
			{Text: "X", X: 5, Top: 5, Size: 9, Font: "Times"},
		}},
		{Number: 3, Width: 612, Height: 792},
	}
	out, err := Positioned(pages)
	if err != nil {
		t.Fatalf("Positioned: %v", err)
	}
	doc := parseHTML(t, out)
	if doc.Find(".page").Length() != 3 {
		t.Fatalf("pages = %d", doc.Find(".page").Length())
	}
	first := doc.Find(".page").Eq(0).Find(".word")
	if first.Length() != 2 {
		t.Fatalf("page 1 words = %d", first.Length())
	}
	style, _ := first.Eq(0).Attr("style")
	if !strings.Contains(style, "left:10.00px") || !strings.Contains(style, "font-weight:bold") {
		t.Errorf("style = %q", style)
	}
	style, _ = first.Eq(1).Attr("style")
	if !strings.Contains(style, "font-style:italic") {
		t.Errorf("italic not inferred: %q", style)
	}
	if first.Eq(1).Find("a[href='mailto:a@b.com']").Length() != 1 {
		t.Errorf("word not linkified")
	}
	if got := doc.Find(".page").Eq(1).Find(".word").Text(); got != "X" {
		t.Errorf("glyph fallback = %q", got)
	}
	if got := doc.Find(".page").Eq(2).Find(".empty").Text(); got != noTextPlaceholder {
		t.Errorf("placeholder = %q", got)
	}
}

func TestFontInference(t *testing.T) {
	cases := []struct {
		font, weight, style string
	}{
		{"ABCDEF+Arial-BoldItalic", "bold", "italic"},
		{"Roboto-Black", "bold", "normal"},
		{"OpenSans-SemiBold", "bold", "normal"},
		{"Helvetica-Oblique", "normal", "italic"},
		{"Times-Roman", "normal", "normal"},
		{"", "normal", "normal"},
	}
	for _, c := range cases {
		if w := fontWeight(c.font); w != c.weight {
			t.Errorf("fontWeight(%q) = %q, want %q", c.font, w, c.weight)
		}
		if s := fontStyle(c.font); s != c.style {
			t.Errorf("fontStyle(%q) = %q, want %q", c.font, s, c.style)
		}
	}
}

func TestExtract_PositionedNonPDFUsesDeterministic(t *testing.T) {
	tpl, err := New(nil, Options{Strategy: StrategyPositioned}).Extract(context.Background(), sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Variant != model.VariantFlowing || tpl.Source != SourceDeterministic {
		t.Errorf("Variant/Source = %q/%q", tpl.Variant, tpl.Source)
	}
}

func TestExtract_PositionedPDFWithoutPages(t *testing.T) {
	tpl, err := New(nil, Options{Strategy: StrategyPositioned}).Extract(context.Background(), pdfDoc())
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Variant != model.VariantPositioned || !strings.Contains(tpl.HTML, noTextPlaceholder) {
		t.Errorf("unexpected template: %+v", tpl)
	}
}

func TestExtract_RefineThreshold(t *testing.T) {
	page := loader.Page{Number: 1, Width: 612, Height: 792, Words: []loader.Run{{Text: "Jane", X: 1, Top: 1, Size: 10}}}

	short := &stubGenerator{out: "<p>x</p>"}
	tpl, _ := New(short, Options{Strategy: StrategyPositioned, Refine: true}).Extract(context.Background(), pdfDoc(page))
	if short.calls != 1 || tpl.Source != SourcePositioned {
		t.Errorf("short refinement should be ignored: calls=%d source=%q", short.calls, tpl.Source)
	}

	failing := &stubGenerator{err: errors.New("boom")}
	tpl, _ = New(failing, Options{Strategy: StrategyPositioned, Refine: true}).Extract(context.Background(), pdfDoc(page))
	if tpl.Source != SourcePositioned || !strings.Contains(tpl.HTML, "Jane") {
		t.Errorf("failed refinement should keep the positioned template: %q", tpl.Source)
	}

	refined := "```html\n<html><body><div class=\"page\"><span class=\"word\">Jane</span></div></body></html>\n```"
	good := &stubGenerator{out: refined}
	tpl, _ = New(good, Options{Strategy: StrategyPositioned, Refine: true}).Extract(context.Background(), pdfDoc(page))
	if tpl.Source != SourceRefined || !strings.HasPrefix(tpl.HTML, "<!DOCTYPE html>") || strings.Contains(tpl.HTML, "```") {
		t.Errorf("refined template not used or not cleaned: %+v", tpl)
	}
}

// ── generative strategy ────────────────────────────────────────────────────

const generatedHTML = "```html\n<html><head><style>.resume-container{}</style></head><body><div class=\"resume-container\"><div class=\"resume-header\"><h1>{{NAME}}</h1></div></div></body></html>\n```"

func TestExtract_Generative(t *testing.T) {
	gen := &stubGenerator{out: generatedHTML}
	tpl, err := New(gen, Options{}).Extract(context.Background(), sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	if tpl.Degraded || tpl.Source != SourceGenerated {
		t.Errorf("Degraded/Source = %v/%q", tpl.Degraded, tpl.Source)
	}
	if !strings.HasPrefix(tpl.HTML, "<!DOCTYPE html>\n<html>") {
		t.Errorf("HTML not cleaned: %q", tpl.HTML[:40])
	}
	if !strings.Contains(gen.last.Prompt, "Fonts used: Calibri") || !strings.Contains(gen.last.Prompt, "Number of pages: 1") {
		t.Errorf("layout description missing from prompt")
	}
}

func TestExtract_GenerativeDegrades(t *testing.T) {
	cases := map[string]*stubGenerator{
		"error":     {err: ai.ErrTimeout},
		"too short": {out: "<html></html>"},
		"no markup": {out: strings.Repeat("just words without any tags ", 5)},
	}
	for name, gen := range cases {
		tpl, err := New(gen, Options{}).Extract(context.Background(), sampleDoc())
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !tpl.Degraded || tpl.Source != SourceDeterministic {
			t.Errorf("%s: expected deterministic degraded template, got %q degraded=%v", name, tpl.Source, tpl.Degraded)
		}
		if !strings.Contains(tpl.HTML, "Jane Doe") {
			t.Errorf("%s: deterministic template lost content", name)
		}
	}
}

func TestExtract_NilGeneratorDegrades(t *testing.T) {
	tpl, err := New(nil, Options{Strategy: StrategyGenerative}).Extract(context.Background(), sampleDoc())
	if err != nil {
		t.Fatal(err)
	}
	if !tpl.Degraded {
		t.Error("expected degraded template without a generator")
	}
}

func TestExtract_NilDocument(t *testing.T) {
	if _, err := New(nil, Options{}).Extract(context.Background(), nil); err == nil {
		t.Error("expected error for nil document")
	}
}

func TestDescribeLayout(t *testing.T) {
	got := DescribeLayout(sampleDoc().Layout)
	want := "Fonts used: Calibri\nColors used: #1F4E79\nNumber of pages: 1\nPage dimensions: 595.3x841.9\nDocument styles: Title, heading 1"
	if got != want {
		t.Errorf("DescribeLayout =\n%s\nwant\n%s", got, want)
	}
	if DescribeLayout(loader.Layout{}) == "" {
		t.Error("empty layout should still be described")
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": StrategyGenerative, "Positioned": StrategyPositioned, "generative": StrategyGenerative} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("magic"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
