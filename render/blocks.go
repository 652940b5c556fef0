package render

import (
	"bytes"
	"html"
	"strconv"
	"strings"

	"github.com/eringen/pubnotion/notion"
)

// blockRule writes one block of a known type. depth is the nesting level of b.
type blockRule func(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int)

// tocFunc renders a table_of_contents block at the top level of a page.
type tocFunc func(buf *bytes.Buffer, b notion.Block)

var blockRules map[notion.BlockType]blockRule

func init() {
	blockRules = map[notion.BlockType]blockRule{
		notion.BlockHeading1:         writeHeading,
		notion.BlockHeading2:         writeHeading,
		notion.BlockHeading3:         writeHeading,
		notion.BlockParagraph:        writeParagraph,
		notion.BlockImage:            writeImage,
		notion.BlockCode:             writeCode,
		notion.BlockBulletedListItem: writeListItem,
		notion.BlockNumberedListItem: writeListItem,
		notion.BlockTableOfContents:  writeTOCPlaceholder,
		notion.BlockBookmark:         writeBookmark,
		notion.BlockColumnList:       writeColumnList,
		notion.BlockColumn:           writeColumn,
		notion.BlockToggle:           writeToggle,
	}
}

func (r *Renderer) writeBlock(buf *bytes.Buffer, b notion.Block, depth int) {
	rule, ok := blockRules[b.Type]
	if !ok {
		writeUnsupported(buf, b)
		return
	}
	rule(r, buf, b, depth)
}

// writeSequence writes sibling blocks, grouping consecutive list items into
// <ul>/<ol>. toc is non-nil only for the top level of a page.
func (r *Renderer) writeSequence(buf *bytes.Buffer, blocks []notion.Block, depth int, toc tocFunc) {
	if len(blocks) == 0 {
		return
	}
	if depth > r.maxDepth {
		buf.WriteString(`<p class="notion-truncated">Nested content omitted.</p>`)
		return
	}
	var open notion.BlockType
	closeList := func() {
		switch open {
		case notion.BlockBulletedListItem:
			buf.WriteString("</ul>")
		case notion.BlockNumberedListItem:
			buf.WriteString("</ol>")
		}
		open = ""
	}
	for _, b := range blocks {
		if b.Type != open {
			closeList()
			switch b.Type {
			case notion.BlockBulletedListItem:
				buf.WriteString(`<ul class="notion-list">`)
				open = b.Type
			case notion.BlockNumberedListItem:
				buf.WriteString(`<ol class="notion-list">`)
				open = b.Type
			}
		}
		if b.Type == notion.BlockTableOfContents && toc != nil {
			toc(buf, b)
			continue
		}
		r.writeBlock(buf, b, depth)
	}
	closeList()
}

// writeChildren writes the fetched children of b one level deeper.
func (r *Renderer) writeChildren(buf *bytes.Buffer, b notion.Block, depth int) {
	r.writeSequence(buf, b.Children, depth+1, nil)
}

// writeNested writes children of a non-container block after its own markup.
func (r *Renderer) writeNested(buf *bytes.Buffer, b notion.Block, depth int) {
	if len(b.Children) == 0 {
		return
	}
	buf.WriteString(`<div class="notion-children">`)
	r.writeChildren(buf, b, depth)
	buf.WriteString("</div>")
}

func writeHeading(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int) {
	tag := "h" + strconv.Itoa(b.Type.HeadingLevel())
	buf.WriteString("<" + tag + ` id="` + html.EscapeString(b.ID) + `" class="notion-heading">`)
	r.writeRichText(buf, b.RichText())
	buf.WriteString("</" + tag + ">")
	r.writeNested(buf, b, depth)
}

func writeParagraph(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int) {
	buf.WriteString("<p>")
	r.writeRichText(buf, b.RichText())
	buf.WriteString("</p>")
	r.writeNested(buf, b, depth)
}

func writeListItem(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int) {
	buf.WriteString("<li>")
	r.writeRichText(buf, b.RichText())
	r.writeChildren(buf, b, depth)
	buf.WriteString("</li>")
}

func writeImage(r *Renderer, buf *bytes.Buffer, b notion.Block, _ int) {
	var caption []notion.RichText
	if b.Image != nil {
		caption = b.Image.Caption
	}
	alt := notion.FirstPlainText(caption)
	if alt == "" {
		alt = "Notion Image"
	}
	buf.WriteString(`<figure class="notion-image">`)
	if src := SafeURL(r.imageURL(b)); src != "" {
		buf.WriteString(`<img src="` + src + `" alt="` + html.EscapeString(alt) + `" loading="lazy"/>`)
	}
	if len(caption) > 0 {
		buf.WriteString("<figcaption>")
		r.writeRichText(buf, caption)
		buf.WriteString("</figcaption>")
	}
	buf.WriteString("</figure>")
}

func writeCode(r *Renderer, buf *bytes.Buffer, b notion.Block, _ int) {
	lang := ""
	var caption []notion.RichText
	if b.Code != nil {
		lang = b.Code.Language
		caption = b.Code.Caption
	}
	buf.WriteString(`<div class="notion-code">`)
	if lang != "" {
		escaped := html.EscapeString(lang)
		buf.WriteString(`<span class="code-lang">` + escaped + "</span>")
	}
	r.highlight(buf, notion.PlainText(b.RichText()), lang)
	if len(caption) > 0 {
		buf.WriteString(`<p class="notion-caption">`)
		r.writeRichText(buf, caption)
		buf.WriteString("</p>")
	}
	buf.WriteString("</div>")
}

func writeTOCPlaceholder(_ *Renderer, buf *bytes.Buffer, _ notion.Block, _ int) {
	buf.WriteString(`<nav class="notion-toc"><p class="notion-toc-title">Table of Contents</p></nav>`)
}

func writeBookmark(_ *Renderer, buf *bytes.Buffer, b notion.Block, _ int) {
	bm := b.Bookmark
	if bm == nil {
		bm = &notion.BookmarkBlock{}
	}
	href := SafeURL(bm.URL)
	title := notion.PlainText(bm.Caption)
	if title == "" {
		title = bm.URL
	}
	if href == "" {
		buf.WriteString(`<div class="notion-bookmark">`)
	} else {
		buf.WriteString(`<a class="notion-bookmark" href="` + href + `" target="_blank" rel="noopener noreferrer">`)
	}
	buf.WriteString(`<span class="notion-bookmark-title">` + html.EscapeString(title) + "</span>")
	if bm.URL != "" {
		buf.WriteString(`<span class="notion-bookmark-url">` + html.EscapeString(bm.URL) + "</span>")
	}
	if href == "" {
		buf.WriteString("</div>")
	} else {
		buf.WriteString("</a>")
	}
}

func writeColumnList(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int) {
	buf.WriteString(`<div class="notion-columns">`)
	r.writeChildren(buf, b, depth)
	buf.WriteString("</div>")
}

func writeColumn(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int) {
	buf.WriteString(`<div class="notion-column">`)
	r.writeChildren(buf, b, depth)
	buf.WriteString("</div>")
}

func writeToggle(r *Renderer, buf *bytes.Buffer, b notion.Block, depth int) {
	buf.WriteString(`<details class="notion-toggle"><summary>`)
	r.writeRichText(buf, b.RichText())
	buf.WriteString(`</summary><div class="notion-toggle-body">`)
	r.writeChildren(buf, b, depth)
	buf.WriteString("</div></details>")
}

func writeUnsupported(buf *bytes.Buffer, b notion.Block) {
	typ := strings.TrimSpace(string(b.Type))
	if typ == "" {
		typ = "unknown"
	}
	buf.WriteString(`<p class="notion-unsupported">Unsupported block type: ` + html.EscapeString(typ) + "</p>")
}
