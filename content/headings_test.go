package content

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eringen/pubnotion/notion"
)

func heading(id string, typ notion.BlockType, text string) notion.Block {
	tb := &notion.TextBlock{}
	if text != "" {
		tb.RichText = []notion.RichText{{Type: notion.RichTextText, PlainText: text}, {PlainText: " tail"}}
	}
	b := notion.Block{ID: id, Type: typ}
	switch typ {
	case notion.BlockHeading1:
		b.Heading1 = tb
	case notion.BlockHeading2:
		b.Heading2 = tb
	case notion.BlockHeading3:
		b.Heading3 = tb
	}
	return b
}

func TestExtractHeadings(t *testing.T) {
	blocks := []notion.Block{
		heading("h1", notion.BlockHeading1, "A"),
		para("p", false),
		heading("h2", notion.BlockHeading2, "B"),
		heading("h3", notion.BlockHeading1, "C"),
	}

	got := ExtractHeadings(blocks)

	assert.Equal(t, []Heading{
		{ID: "h1", Text: "A", Level: 1},
		{ID: "h2", Text: "B", Level: 2},
		{ID: "h3", Text: "C", Level: 1},
	}, got)
}

func TestExtractHeadingsEmptyAndNested(t *testing.T) {
	toggle := notion.Block{
		ID:          "t",
		Type:        notion.BlockToggle,
		HasChildren: true,
		Toggle:      &notion.TextBlock{},
		Children:    []notion.Block{heading("inner", notion.BlockHeading2, "Hidden")},
	}
	blocks := []notion.Block{
		heading("h", notion.BlockHeading3, ""),
		toggle,
		{ID: "bare", Type: notion.BlockHeading2},
	}

	got := ExtractHeadings(blocks)

	assert.Equal(t, []Heading{
		{ID: "h", Text: "", Level: 3},
		{ID: "bare", Text: "", Level: 2},
	}, got)
}
