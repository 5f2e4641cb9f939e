// Package loader turns uploaded résumé files into normalized Markdown-like
// text plus whatever layout information the format exposes.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"resume-filler/internal/domain"

	"github.com/pkg/errors"
)

// Format is a supported input format.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatText     Format = "txt"
	FormatMarkdown Format = "md"
)

var formatsByExt = map[string]Format{
	".pdf":      FormatPDF,
	".docx":     FormatDOCX,
	".txt":      FormatText,
	".md":       FormatMarkdown,
	".markdown": FormatMarkdown,
}

// Document is a loaded file.
type Document struct {
	Name   string
	Format Format
	// Text is the normalized Markdown-like representation.
	Text   string
	Layout Layout
}

// Layout is the visual information gathered while loading. Positioned data
// (pages with words and glyphs) is only available for PDF input.
type Layout struct {
	Pages  []Page
	Fonts  []string
	Colors []string
	Styles []string
	Blocks []Block
}

// Page is one PDF page in points, origin at the top-left corner.
type Page struct {
	Number int
	Width  float64
	Height float64
	Words  []Run
	Glyphs []Run
}

// Run is a positioned piece of text: a word or a single glyph.
type Run struct {
	Text string
	X    float64
	Top  float64
	W    float64
	Font string
	Size float64
}

// BlockKind classifies a Block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
	BlockTableRow
)

// Block is a flowing unit of the document in reading order.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
	Cells []string
	Style string
}

// FormatOf returns the format for a file name.
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, ok := formatsByExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Load reads a file from disk. The extension is checked before the file is
// opened.
func Load(path string) (*Document, error) {
	if _, err := FormatOf(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.LoadError{Path: path, Err: errors.Wrap(err, "read file")}
	}
	return Parse(filepath.Base(path), data)
}

// Parse decodes in-memory file content. name is only used for format
// dispatch and error messages.
func Parse(name string, data []byte) (*Document, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	var doc *Document
	switch format {
	case FormatPDF:
		doc, err = parsePDF(data)
	case FormatDOCX:
		doc, err = parseDOCX(data)
	default:
		doc, err = parseText(data)
	}
	if err != nil {
		return nil, &domain.LoadError{Path: name, Err: err}
	}
	doc.Name = name
	doc.Format = format
	doc.Text = strings.TrimSpace(doc.Text)
	return doc, nil
}
