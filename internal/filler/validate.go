package filler

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// minFilledLength is the shortest filled document accepted.
	minFilledLength = 100
	// minElementRatio is the smallest share of the template's body elements
	// the filled document must keep.
	minElementRatio = 0.25
)

// elementCount counts the elements inside <body>. The parser always
// synthesizes html, head and body, so they are left out.
func elementCount(doc string) (int, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return 0, err
	}
	return d.Find("body *").Length(), nil
}

// validateFilled rejects output that is too short or lost most of the
// template's structure.
func validateFilled(templateHTML, filled string) error {
	if n := len(strings.TrimSpace(filled)); n < minFilledLength {
		return fmt.Errorf("filled document too short (%d chars)", n)
	}
	got, err := elementCount(filled)
	if err != nil {
		return fmt.Errorf("parse filled document: %w", err)
	}
	if got == 0 {
		return fmt.Errorf("filled document has no elements")
	}
	want, err := elementCount(templateHTML)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	if float64(got) < minElementRatio*float64(want) {
		return fmt.Errorf("filled document has %d elements, template has %d", got, want)
	}
	return nil
}
