// Package renderer lays out contract content as paginated PDF documents. It
// parses a constrained markup subset into typed blocks and feeds them through
// a deterministic layout pass.
package renderer

import "strings"

// BlockKind identifies a layout block type.
type BlockKind int

const (
	BlockHeading1 BlockKind = iota
	BlockHeading2
	BlockParagraph
	BlockBullet
	BlockEmphasis
	BlockTableRow
	BlockSeparator
)

// Block is one unit of laid-out content. TableRow blocks carry Label and
// Value; every other kind carries Text.
type Block struct {
	Kind  BlockKind
	Text  string
	Label string
	Value string
}

// ParseBlocks converts marked-up contract content into layout blocks. The
// recognized subset: "# " and "## " headings, "- " or "* " bullets, lines
// wrapped in single asterisks or underscores as emphasis, "|label|value|"
// table rows, and "---" rules. Anything else is plain paragraph text with
// residual markup characters stripped. Consecutive plain lines merge into one
// paragraph; blank lines separate them.
func ParseBlocks(content string) []Block {
	var blocks []Block
	var paragraph []string

	flush := func() {
		if len(paragraph) == 0 {
			return
		}
		blocks = append(blocks, Block{Kind: BlockParagraph, Text: strings.Join(paragraph, " ")})
		paragraph = nil
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case isSeparator(line):
			flush()
			blocks = append(blocks, Block{Kind: BlockSeparator})
		case strings.HasPrefix(line, "## "):
			flush()
			blocks = append(blocks, Block{Kind: BlockHeading2, Text: stripInline(line[3:])})
		case strings.HasPrefix(line, "# "):
			flush()
			blocks = append(blocks, Block{Kind: BlockHeading1, Text: stripInline(line[2:])})
		case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "):
			flush()
			blocks = append(blocks, Block{Kind: BlockBullet, Text: stripInline(line[2:])})
		case isTableRow(line):
			flush()
			label, value := splitTableRow(line)
			blocks = append(blocks, Block{Kind: BlockTableRow, Label: label, Value: value})
		case isEmphasis(line):
			flush()
			blocks = append(blocks, Block{Kind: BlockEmphasis, Text: stripInline(line[1 : len(line)-1])})
		default:
			paragraph = append(paragraph, stripInline(line))
		}
	}
	flush()
	return blocks
}

func isSeparator(line string) bool {
	if len(line) < 3 {
		return false
	}
	for _, r := range line {
		if r != '-' {
			return false
		}
	}
	return true
}

func isTableRow(line string) bool {
	return len(line) > 2 && line[0] == '|' && line[len(line)-1] == '|' && strings.Count(line, "|") >= 3
}

func splitTableRow(line string) (label, value string) {
	cells := strings.Split(strings.Trim(line, "|"), "|")
	label = strings.TrimSpace(stripInline(cells[0]))
	value = strings.TrimSpace(stripInline(strings.Join(cells[1:], " ")))
	return label, value
}

func isEmphasis(line string) bool {
	if len(line) < 3 {
		return false
	}
	wrapped := func(marker byte) bool {
		return line[0] == marker && line[len(line)-1] == marker &&
			!strings.Contains(line[1:len(line)-1], string(marker))
	}
	return wrapped('*') || wrapped('_')
}

// stripInline drops residual markup characters so unrecognized constructs
// degrade to plain text.
func stripInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	s = strings.TrimSpace(s)
	return s
}
