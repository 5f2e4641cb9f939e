package loader

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func parseText(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("content is not valid UTF-8")
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return &Document{Text: text, Layout: Layout{Blocks: markdownBlocks(text)}}, nil
}

// markdownBlocks classifies Markdown-ish lines into blocks so text input
// can still produce a flowing template.
func markdownBlocks(text string) []Block {
	var blocks []Block
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "#"):
			level := 0
			for level < len(line) && line[level] == '#' {
				level++
			}
			if level > 6 {
				level = 6
			}
			blocks = append(blocks, Block{Kind: BlockHeading, Level: level, Text: strings.TrimSpace(strings.TrimLeft(line, "#"))})
		case strings.HasPrefix(line, "|"):
			if isTableRule(line) {
				continue
			}
			blocks = append(blocks, Block{Kind: BlockTableRow, Cells: splitTableRow(line)})
		case isListLine(line):
			blocks = append(blocks, Block{Kind: BlockListItem, Text: stripListMarker(line)})
		default:
			blocks = append(blocks, Block{Kind: BlockParagraph, Text: stripEmphasis(line)})
		}
	}
	return blocks
}

func isTableRule(line string) bool {
	return strings.Trim(line, "|-: ") == ""
}

func splitTableRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var listMarkers = []string{"- ", "* ", "+ ", "• ", "● ", "▪ ", "◦ ", "_•_"}

func isListLine(line string) bool {
	for _, m := range listMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

func stripListMarker(line string) string {
	for _, m := range listMarkers {
		if strings.HasPrefix(line, m) {
			return strings.TrimSpace(strings.TrimPrefix(line, m))
		}
	}
	return line
}

func stripEmphasis(line string) string {
	return strings.TrimFunc(strings.NewReplacer("**", "", "__", "").Replace(line), unicode.IsSpace)
}
