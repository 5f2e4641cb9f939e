package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var headingStyle = regexp.MustCompile(`(?i)^heading\s*([1-6])$`)

type segment struct {
	text string
	bold bool
}

type docxParagraph struct {
	style    string
	numbered bool
	segments []segment
}

func (p *docxParagraph) plain() string {
	var sb strings.Builder
	for _, s := range p.segments {
		sb.WriteString(s.text)
	}
	return strings.TrimSpace(sb.String())
}

// markdown renders the paragraph text with bold runs as **...**.
func (p *docxParagraph) markdown() string {
	var sb strings.Builder
	for i := 0; i < len(p.segments); {
		j := i
		var part strings.Builder
		for j < len(p.segments) && p.segments[j].bold == p.segments[i].bold {
			part.WriteString(p.segments[j].text)
			j++
		}
		text := part.String()
		if p.segments[i].bold && strings.TrimSpace(text) != "" {
			lead := text[:len(text)-len(strings.TrimLeft(text, " \t"))]
			trail := text[len(strings.TrimRight(text, " \t")):]
			text = lead + "**" + strings.TrimSpace(text) + "**" + trail
		}
		sb.WriteString(text)
		i = j
	}
	return strings.TrimSpace(sb.String())
}

type docxParser struct {
	styleNames map[string]string
	fonts      map[string]bool
	colors     map[string]bool
	styles     map[string]bool

	doc     *Document
	text    strings.Builder
	para    *docxParagraph
	runBold bool
	inText  bool

	tableDepth int
	row        []string
	cell       []string
	rowsInTbl  int
}

func parseDOCX(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "open docx archive")
	}
	p := &docxParser{
		styleNames: map[string]string{},
		fonts:      map[string]bool{},
		colors:     map[string]bool{},
		styles:     map[string]bool{},
		doc:        &Document{},
	}
	var body *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			body = f
		case "word/styles.xml":
			if err := p.readStyles(f); err != nil {
				return nil, err
			}
		}
	}
	if body == nil {
		return nil, errors.New("no word/document.xml in docx")
	}
	rc, err := body.Open()
	if err != nil {
		return nil, errors.Wrap(err, "open word/document.xml")
	}
	defer rc.Close()
	if err := p.readBody(rc); err != nil {
		return nil, err
	}

	p.doc.Text = p.text.String()
	p.doc.Layout.Fonts = sortedKeys(p.fonts)
	p.doc.Layout.Colors = sortedKeys(p.colors)
	p.doc.Layout.Styles = sortedKeys(p.styles)
	return p.doc, nil
}

func (p *docxParser) readStyles(f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrap(err, "open word/styles.xml")
	}
	defer rc.Close()
	dec := xml.NewDecoder(rc)
	var id string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "parse word/styles.xml")
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "style":
			id = attr(se, "styleId")
		case "name":
			if id != "" {
				p.styleNames[id] = attr(se, "val")
			}
		case "rFonts":
			if font := attr(se, "ascii"); font != "" {
				p.fonts[font] = true
			}
		}
	}
}

func (p *docxParser) readBody(r io.Reader) error {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "parse word/document.xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.start(t)
		case xml.EndElement:
			p.end(t)
		case xml.CharData:
			if p.inText && p.para != nil {
				p.para.segments = append(p.para.segments, segment{text: string(t), bold: p.runBold})
			}
		}
	}
}

func (p *docxParser) start(t xml.StartElement) {
	switch t.Name.Local {
	case "tbl":
		p.tableDepth++
		if p.tableDepth == 1 {
			p.rowsInTbl = 0
		}
	case "tr":
		if p.tableDepth == 1 {
			p.row = nil
		}
	case "tc":
		if p.tableDepth == 1 {
			p.cell = nil
		}
	case "p":
		p.para = &docxParagraph{}
	case "pStyle":
		if p.para != nil {
			p.para.style = attr(t, "val")
		}
	case "numPr":
		if p.para != nil {
			p.para.numbered = true
		}
	case "r":
		p.runBold = false
	case "b":
		v := attr(t, "val")
		p.runBold = v == "" || v == "1" || v == "true" || v == "on"
	case "rFonts":
		if f := attr(t, "ascii"); f != "" {
			p.fonts[f] = true
		}
	case "color":
		if c := attr(t, "val"); c != "" && !strings.EqualFold(c, "auto") {
			p.colors["#"+strings.ToUpper(c)] = true
		}
	case "t":
		p.inText = true
	case "tab":
		if p.para != nil {
			p.para.segments = append(p.para.segments, segment{text: "\t", bold: p.runBold})
		}
	case "br", "cr":
		if p.para != nil {
			p.para.segments = append(p.para.segments, segment{text: " ", bold: p.runBold})
		}
	case "pgSz":
		w, _ := strconv.ParseFloat(attr(t, "w"), 64)
		h, _ := strconv.ParseFloat(attr(t, "h"), 64)
		if w > 0 && h > 0 && len(p.doc.Layout.Pages) == 0 {
			p.doc.Layout.Pages = append(p.doc.Layout.Pages, Page{Number: 1, Width: w / 20, Height: h / 20})
		}
	}
}

func (p *docxParser) end(t xml.EndElement) {
	switch t.Name.Local {
	case "t":
		p.inText = false
	case "p":
		if p.para == nil {
			return
		}
		if p.tableDepth > 0 {
			if s := p.para.plain(); s != "" {
				p.cell = append(p.cell, s)
			}
		} else {
			p.emitParagraph(p.para)
		}
		p.para = nil
	case "tc":
		if p.tableDepth == 1 {
			p.row = append(p.row, strings.Join(p.cell, " "))
		}
	case "tr":
		if p.tableDepth == 1 {
			p.emitRow(p.row)
		}
	case "tbl":
		p.tableDepth--
		if p.tableDepth == 0 {
			p.text.WriteString("\n")
		}
	}
}

func (p *docxParser) emitParagraph(para *docxParagraph) {
	plain := para.plain()
	name := p.styleNames[para.style]
	if name == "" {
		name = para.style
	}
	if name != "" {
		p.styles[name] = true
	}
	if plain == "" {
		return
	}
	block := Block{Kind: BlockParagraph, Text: plain, Style: name}
	line := para.markdown()
	switch {
	case strings.EqualFold(name, "title"):
		block.Kind, block.Level = BlockHeading, 1
		line = "# " + plain
	case strings.EqualFold(name, "subtitle"):
		block.Kind, block.Level = BlockHeading, 2
		line = "## " + plain
	case headingStyle.MatchString(name):
		level, _ := strconv.Atoi(headingStyle.FindStringSubmatch(name)[1])
		block.Kind, block.Level = BlockHeading, level
		line = strings.Repeat("#", level) + " " + plain
	case para.numbered || strings.Contains(strings.ToLower(name), "list"):
		block.Kind = BlockListItem
		line = "- " + line
	}
	p.doc.Layout.Blocks = append(p.doc.Layout.Blocks, block)
	p.text.WriteString(line + "\n")
}

func (p *docxParser) emitRow(cells []string) {
	if len(cells) == 0 {
		return
	}
	p.doc.Layout.Blocks = append(p.doc.Layout.Blocks, Block{Kind: BlockTableRow, Cells: cells})
	p.text.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	if p.rowsInTbl == 0 {
		rule := make([]string, len(cells))
		for i := range rule {
			rule[i] = "---"
		}
		p.text.WriteString("| " + strings.Join(rule, " | ") + " |\n")
	}
	p.rowsInTbl++
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
