package content

import "github.com/eringen/pubnotion/notion"

// Heading is one entry of a page's table of contents. ID is the heading
// block's id, which is also its in-page anchor.
type Heading struct {
	ID    string
	Text  string
	Level int
}

// ExtractHeadings lists the top-level heading blocks in document order.
// Headings nested inside toggles or columns are not indexed.
func ExtractHeadings(blocks []notion.Block) []Heading {
	var out []Heading
	for _, b := range blocks {
		level := b.Type.HeadingLevel()
		if level == 0 {
			continue
		}
		out = append(out, Heading{
			ID:    b.ID,
			Text:  notion.FirstPlainText(b.RichText()),
			Level: level,
		})
	}
	return out
}
