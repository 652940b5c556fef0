// Package render turns Notion block trees into HTML templ components.
package render

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/eringen/pubnotion/content"
	"github.com/eringen/pubnotion/notion"
)

const (
	DefaultMaxDepth       = 32
	DefaultHighlightStyle = "github"
)

// Renderer renders blocks and rich text to HTML. The zero value is not usable;
// call New.
type Renderer struct {
	imageURL   func(notion.Block) string
	mentionURL func(pageID string) string
	maxDepth   int
	style      *chroma.Style
	formatter  *chromahtml.Formatter
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithImageURL sets how an image block's src is derived. The default uses the
// URL stored in the block.
func WithImageURL(fn func(notion.Block) string) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.imageURL = fn
		}
	}
}

// WithMentionURL sets the link target of page mentions.
func WithMentionURL(fn func(pageID string) string) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.mentionURL = fn
		}
	}
}

// WithMaxDepth caps nesting; deeper content is replaced by a visible marker.
func WithMaxDepth(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithHighlightStyle selects the chroma style used by WriteCSS. Unknown names
// fall back to chroma's default style.
func WithHighlightStyle(name string) Option {
	return func(r *Renderer) { r.style = styles.Get(name) }
}

// New returns a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		imageURL:   func(b notion.Block) string { return b.Image.URL() },
		mentionURL: func(id string) string { return "/mention/" + id + "/" },
		maxDepth:   DefaultMaxDepth,
		style:      styles.Get(DefaultHighlightStyle),
		formatter: chromahtml.New(
			chromahtml.WithClasses(true),
			chromahtml.TabWidth(4),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Default is the renderer used by the package-level functions.
var Default = New()

// RenderBlock renders one block with Default.
func RenderBlock(b notion.Block) templ.Component { return Default.RenderBlock(b) }

// RenderRichText renders rich-text runs with Default.
func RenderRichText(runs []notion.RichText) templ.Component { return Default.RenderRichText(runs) }

// RenderBlock renders a single block and its fetched children. A list item is
// rendered as a bare <li>; use RenderContent to get grouped lists.
func (r *Renderer) RenderBlock(b notion.Block) templ.Component {
	return component(func(buf *bytes.Buffer) { r.writeBlock(buf, b, 0) })
}

// RenderRichText renders a sequence of inline runs.
func (r *Renderer) RenderRichText(runs []notion.RichText) templ.Component {
	return component(func(buf *bytes.Buffer) { r.writeRichText(buf, runs) })
}

// RenderContent renders a page body. Top-level table_of_contents blocks are
// filled from headings, which callers obtain from content.ExtractHeadings.
func (r *Renderer) RenderContent(blocks []notion.Block, headings []content.Heading) templ.Component {
	return component(func(buf *bytes.Buffer) {
		r.writeSequence(buf, blocks, 0, func(buf *bytes.Buffer, _ notion.Block) {
			r.writeTableOfContents(buf, headings)
		})
	})
}

// RenderTableOfContents renders a table_of_contents block from a heading list.
func (r *Renderer) RenderTableOfContents(_ notion.Block, headings []content.Heading) templ.Component {
	return component(func(buf *bytes.Buffer) { r.writeTableOfContents(buf, headings) })
}

// WriteCSS writes the stylesheet for highlighted code blocks.
func (r *Renderer) WriteCSS(w io.Writer) error {
	return r.formatter.WriteCSS(w, r.style)
}

func component(fn func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		fn(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}
