package model

import "strings"

// Variant distinguishes the two template shapes the filler understands.
type Variant string

const (
	// VariantPositioned templates place each word absolutely by page coordinates.
	VariantPositioned Variant = "positioned"
	// VariantFlowing templates use ordinary block/heading/paragraph structure.
	VariantFlowing Variant = "flowing"
)

// Template is a layout skeleton derived from an uploaded document.
type Template struct {
	HTML     string  `json:"html"`
	CSS      string  `json:"css,omitempty"`
	Variant  Variant `json:"variant"`
	Degraded bool    `json:"degraded"`
	Source   string  `json:"source,omitempty"`
}

// Empty reports whether the template carries no markup.
func (t Template) Empty() bool {
	return strings.TrimSpace(t.HTML) == ""
}

// Document returns the markup with the CSS, if any, inlined into <head> so
// the result is self-contained.
func (t Template) Document() string {
	if strings.TrimSpace(t.CSS) == "" {
		return t.HTML
	}
	block := "<style>" + t.CSS + "</style>"
	lower := strings.ToLower(t.HTML)
	if i := strings.Index(lower, "<head>"); i >= 0 {
		at := i + len("<head>")
		return t.HTML[:at] + block + t.HTML[at:]
	}
	if i := strings.Index(lower, "<html"); i >= 0 {
		if j := strings.Index(lower[i:], ">"); j >= 0 {
			at := i + j + 1
			return t.HTML[:at] + "<head>" + block + "</head>" + t.HTML[at:]
		}
	}
	return block + t.HTML
}
