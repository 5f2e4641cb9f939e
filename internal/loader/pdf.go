package loader

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

func parsePDF(data []byte) (doc *Document, err error) {
	// The pdf package panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}

	doc = &Document{}
	fonts := map[string]bool{}
	var allRows [][]Run
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		w, h := pageSize(p)
		page := Page{Number: i, Width: w, Height: h}
		for _, t := range p.Content().Text {
			if t.S == "" {
				continue
			}
			g := Run{Text: t.S, X: t.X, Top: h - t.Y - t.FontSize, W: t.W, Font: t.Font, Size: t.FontSize}
			page.Glyphs = append(page.Glyphs, g)
			if t.Font != "" {
				fonts[baseFontName(t.Font)] = true
			}
		}
		page.Words = groupWords(page.Glyphs)
		doc.Layout.Pages = append(doc.Layout.Pages, page)
		allRows = append(allRows, groupRows(page.Words)...)
		allRows = append(allRows, nil)
	}

	for f := range fonts {
		doc.Layout.Fonts = append(doc.Layout.Fonts, f)
	}
	sort.Strings(doc.Layout.Fonts)

	body := bodySize(doc.Layout.Pages)
	var sb strings.Builder
	for _, row := range allRows {
		if row == nil {
			sb.WriteString("\n")
			continue
		}
		block := rowBlock(row, body)
		doc.Layout.Blocks = append(doc.Layout.Blocks, block)
		switch block.Kind {
		case BlockHeading:
			sb.WriteString(strings.Repeat("#", block.Level) + " " + block.Text + "\n")
		case BlockListItem:
			sb.WriteString("- " + block.Text + "\n")
		default:
			sb.WriteString(block.Text + "\n")
		}
	}
	doc.Text = sb.String()
	return doc, nil
}

func pageSize(p pdf.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.IsNull() {
		box = p.V.Key("Parent").Key("MediaBox")
	}
	if box.Len() == 4 {
		w := box.Index(2).Float64() - box.Index(0).Float64()
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if w > 0 && h > 0 {
			return w, h
		}
	}
	return defaultPageWidth, defaultPageHeight
}

// baseFontName drops the six-letter subset prefix ("ABCDEF+Arial-Bold").
func baseFontName(name string) string {
	if i := strings.IndexByte(name, '+'); i == 6 {
		return name[i+1:]
	}
	return name
}

// groupWords merges glyphs into words. A word ends at whitespace, at a
// horizontal gap, on a new line, or when the font or size changes.
func groupWords(glyphs []Run) []Run {
	var words []Run
	var cur *Run
	flush := func() {
		if cur != nil && strings.TrimSpace(cur.Text) != "" {
			words = append(words, *cur)
		}
		cur = nil
	}
	for _, g := range glyphs {
		if strings.TrimFunc(g.Text, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if cur != nil {
			tol := math.Max(1.5, cur.Size*0.25)
			sameLine := math.Abs(g.Top-cur.Top) <= math.Max(1, cur.Size*0.5)
			gap := g.X - (cur.X + cur.W)
			if !sameLine || gap > tol || gap < -tol || g.Font != cur.Font || g.Size != cur.Size {
				flush()
			}
		}
		if cur == nil {
			c := g
			cur = &c
			continue
		}
		cur.Text += g.Text
		cur.W = g.X + g.W - cur.X
	}
	flush()
	return words
}

// groupRows collects words into visual lines ordered top to bottom and
// left to right.
func groupRows(words []Run) [][]Run {
	sorted := make([]Run, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if math.Abs(sorted[i].Top-sorted[j].Top) > 2 {
			return sorted[i].Top < sorted[j].Top
		}
		return sorted[i].X < sorted[j].X
	})
	var rows [][]Run
	for _, w := range sorted {
		n := len(rows)
		if n > 0 && math.Abs(rows[n-1][0].Top-w.Top) <= math.Max(2, w.Size*0.4) {
			rows[n-1] = append(rows[n-1], w)
			continue
		}
		rows = append(rows, []Run{w})
	}
	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].X < r[j].X })
	}
	return rows
}

// bodySize is the font size carrying the most characters.
func bodySize(pages []Page) float64 {
	counts := map[float64]int{}
	for _, p := range pages {
		for _, w := range p.Words {
			counts[math.Round(w.Size*2)/2] += len(w.Text)
		}
	}
	best, bestN := 0.0, -1
	for size, n := range counts {
		if n > bestN || (n == bestN && size < best) {
			best, bestN = size, n
		}
	}
	return best
}

var pdfBullets = []string{"•", "●", "▪", "◦", "‣", "–", "-"}

func rowBlock(row []Run, body float64) Block {
	parts := make([]string, 0, len(row))
	size := 0.0
	for _, w := range row {
		parts = append(parts, w.Text)
		size = math.Max(size, w.Size)
	}
	text := strings.Join(parts, " ")
	for _, b := range pdfBullets {
		if strings.HasPrefix(text, b+" ") || (text != b && strings.HasPrefix(text, b) && b != "-" && b != "–") {
			return Block{Kind: BlockListItem, Text: strings.TrimSpace(strings.TrimPrefix(text, b))}
		}
	}
	if body > 0 {
		switch {
		case size >= body*1.5:
			return Block{Kind: BlockHeading, Level: 1, Text: text}
		case size >= body*1.15:
			return Block{Kind: BlockHeading, Level: 2, Text: text}
		}
	}
	return Block{Kind: BlockParagraph, Text: text}
}
