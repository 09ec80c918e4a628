package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocksHeadingsAndParagraphs(t *testing.T) {
	blocks := ParseBlocks("# Object\nFirst line\nsecond line\n\nNext paragraph\n## Details")

	require.Len(t, blocks, 4)
	assert.Equal(t, Block{Kind: BlockHeading1, Text: "Object"}, blocks[0])
	assert.Equal(t, Block{Kind: BlockParagraph, Text: "First line second line"}, blocks[1])
	assert.Equal(t, Block{Kind: BlockParagraph, Text: "Next paragraph"}, blocks[2])
	assert.Equal(t, Block{Kind: BlockHeading2, Text: "Details"}, blocks[3])
}

func TestParseBlocksBulletsTablesSeparators(t *testing.T) {
	blocks := ParseBlocks("- first\n* second\n|Venue|Paris|\n---\n*emphasized*")

	require.Len(t, blocks, 5)
	assert.Equal(t, Block{Kind: BlockBullet, Text: "first"}, blocks[0])
	assert.Equal(t, Block{Kind: BlockBullet, Text: "second"}, blocks[1])
	assert.Equal(t, Block{Kind: BlockTableRow, Label: "Venue", Value: "Paris"}, blocks[2])
	assert.Equal(t, BlockSeparator, blocks[3].Kind)
	assert.Equal(t, Block{Kind: BlockEmphasis, Text: "emphasized"}, blocks[4])
}

func TestParseBlocksStripsUnknownMarkup(t *testing.T) {
	blocks := ParseBlocks("Some **bold** and `code` text")

	require.Len(t, blocks, 1)
	assert.Equal(t, "Some bold and code text", blocks[0].Text)
}

func TestParseBlocksEmptyContent(t *testing.T) {
	assert.Empty(t, ParseBlocks(""))
	assert.Empty(t, ParseBlocks("\n\n\n"))
}
