package render

import (
	"bytes"
	"html"
	"net/url"
	"strings"

	"github.com/eringen/pubnotion/notion"
)

// writeRichText writes runs in order. Annotations wrap innermost first in the
// order bold, italic, strikethrough, underline, code, color; a link wraps
// everything. User and date mentions that are not links replace the text.
func (r *Renderer) writeRichText(buf *bytes.Buffer, runs []notion.RichText) {
	for _, run := range runs {
		buf.WriteString(r.richTextRun(run))
	}
}

func (r *Renderer) richTextRun(run notion.RichText) string {
	s := html.EscapeString(run.PlainText)
	if run.Type == notion.RichTextEquation {
		expr := run.PlainText
		if run.Equation != nil && run.Equation.Expression != "" {
			expr = run.Equation.Expression
		}
		s = `<span class="notion-equation">` + html.EscapeString(expr) + "</span>"
	}

	a := run.Annotations
	if a.Bold {
		s = "<strong>" + s + "</strong>"
	}
	if a.Italic {
		s = "<em>" + s + "</em>"
	}
	if a.Strikethrough {
		s = "<s>" + s + "</s>"
	}
	if a.Underline {
		s = "<u>" + s + "</u>"
	}
	if a.Code {
		s = `<code class="notion-inline-code">` + s + "</code>"
	}
	if a.Color != "" && a.Color != "default" {
		s = `<span class="notion-color-` + html.EscapeString(a.Color) + `">` + s + "</span>"
	}

	var mention *notion.Mention
	if run.Type == notion.RichTextMention && run.Mention.Valid() {
		mention = run.Mention
	}

	href := run.Link()
	if mention != nil && mention.Type == notion.MentionPage {
		href = r.mentionURL(mention.Page.ID)
	}
	if link := SafeURL(href); link != "" {
		attrs := ""
		if !strings.HasPrefix(link, "/") && !strings.HasPrefix(link, "#") {
			attrs = ` target="_blank" rel="noopener noreferrer"`
		}
		return `<a href="` + link + `"` + attrs + ">" + s + "</a>"
	}

	if mention != nil {
		switch mention.Type {
		case notion.MentionUser:
			return `<span class="notion-mention-user">@` + html.EscapeString(mention.User.Display()) + "</span>"
		case notion.MentionDate:
			return `<span class="notion-mention-date">` + html.EscapeString(formatDate(mention.Date)) + "</span>"
		}
	}
	return s
}

func formatDate(d *notion.DateValue) string {
	t, ok := d.Time()
	if !ok {
		if d == nil {
			return ""
		}
		return d.Start
	}
	return t.Format("Jan 2, 2006")
}

// SafeURL returns raw HTML-escaped when it is a relative path, fragment, or an
// http, https, mailto or tel URL, and "" otherwise.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
