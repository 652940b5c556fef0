package render

import (
	"bytes"
	"html"
	"strconv"

	"github.com/eringen/pubnotion/content"
)

func (r *Renderer) writeTableOfContents(buf *bytes.Buffer, headings []content.Heading) {
	buf.WriteString(`<nav class="notion-toc" aria-label="Table of contents"><p class="notion-toc-title">Table of Contents</p>`)
	if len(headings) > 0 {
		buf.WriteString("<ul>")
		for _, h := range headings {
			buf.WriteString(`<li class="notion-toc-level-` + strconv.Itoa(h.Level) + `"><a href="#` +
				html.EscapeString(h.ID) + `">` + html.EscapeString(h.Text) + "</a></li>")
		}
		buf.WriteString("</ul>")
	}
	buf.WriteString("</nav>")
}
