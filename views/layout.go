// Package views holds the default HTML pages of a pubnotion site. Each page is
// a templ.Component so a site can swap any of them out.
package views

import (
	"bytes"
	"context"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubnotion/analytics"
	"github.com/eringen/pubnotion/content"
)

var esc = html.EscapeString

func component(fn func(ctx context.Context, buf *bytes.Buffer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := fn(ctx, &buf); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// Layout wraps body in the document shell: head metadata, sidebar and the
// analytics script.
func Layout(site SiteConfig, meta PageMeta, sidebar Sidebar, body templ.Component) templ.Component {
	return component(func(ctx context.Context, buf *bytes.Buffer) error {
		title := site.Name
		if meta.Title != "" && meta.Title != site.Name {
			title = meta.Title + " | " + site.Name
		}
		ogType := meta.OGType
		if ogType == "" {
			ogType = "website"
		}

		buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		buf.WriteString(`<title>` + esc(title) + `</title>`)
		if meta.Description != "" {
			buf.WriteString(`<meta name="description" content="` + esc(meta.Description) + `">`)
			buf.WriteString(`<meta property="og:description" content="` + esc(meta.Description) + `">`)
		}
		if meta.Keywords != "" {
			buf.WriteString(`<meta name="keywords" content="` + esc(meta.Keywords) + `">`)
		}
		if meta.URL != "" {
			buf.WriteString(`<link rel="canonical" href="` + esc(meta.URL) + `">`)
			buf.WriteString(`<meta property="og:url" content="` + esc(meta.URL) + `">`)
		}
		buf.WriteString(`<meta property="og:title" content="` + esc(title) + `">`)
		buf.WriteString(`<meta property="og:type" content="` + esc(ogType) + `">`)
		buf.WriteString(`<meta property="og:site_name" content="` + esc(site.Name) + `">`)
		buf.WriteString(`<link rel="alternate" type="application/rss+xml" title="` + esc(site.Name) + `" href="/feed.xml">`)
		buf.WriteString(`<link rel="stylesheet" href="/public/style.css">`)
		buf.WriteString(`<link rel="stylesheet" href="/public/highlight.css">`)
		if meta.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the payload cannot close the script tag.
			buf.WriteString(`<script type="application/ld+json">` + meta.JSONLD + `</script>`)
		}
		buf.WriteString(`</head><body><header class="site-header"><a class="site-name" href="/">` + esc(site.Name) + `</a>`)
		if site.Description != "" {
			buf.WriteString(`<p class="site-description">` + esc(site.Description) + `</p>`)
		}
		buf.WriteString(`</header><div class="layout"><main class="content">`)
		if err := body.Render(ctx, buf); err != nil {
			return err
		}
		buf.WriteString(`</main>`)
		writeSidebar(buf, sidebar)
		buf.WriteString(`</div><footer class="site-footer">`)
		if site.Author != "" {
			buf.WriteString(`<p>&copy; ` + esc(site.Author) + `</p>`)
		}
		buf.WriteString(`</footer>`)
		if site.AnalyticsEnabled {
			buf.WriteString(`<script src="/public/analytics.js" defer></script>`)
		}
		buf.WriteString(`</body></html>`)
		return nil
	})
}

func writeSidebar(buf *bytes.Buffer, s Sidebar) {
	buf.WriteString(`<aside class="sidebar">`)
	if s.Categories != nil && s.Categories.Len() > 0 {
		buf.WriteString(`<nav class="categories"><p class="sidebar-title">Categories</p>`)
		writeCategoryList(buf, s.Categories)
		buf.WriteString(`</nav>`)
	}
	if s.Views != nil {
		writeViewCounts(buf, s.Views)
	}
	buf.WriteString(`</aside>`)
}

func writeCategoryList(buf *bytes.Buffer, n *content.CategoryNode) {
	buf.WriteString(`<ul>`)
	n.Each(func(_ string, child *content.CategoryNode) {
		if child.IsCategory() {
			buf.WriteString(`<li class="category"><details open><summary>` + esc(child.Name) + `</summary>`)
			writeCategoryList(buf, child)
			buf.WriteString(`</details></li>`)
			return
		}
		buf.WriteString(`<li class="post"><a href="` + esc(PostPath(child.Slug)) + `">` + esc(child.Title) + `</a></li>`)
	})
	buf.WriteString(`</ul>`)
}

func writeViewCounts(buf *bytes.Buffer, v *analytics.Summary) {
	buf.WriteString(`<div class="views"><p class="sidebar-title">Views</p><dl>`)
	for _, row := range []struct {
		label string
		n     int
	}{
		{"Total", v.Total},
		{"Today", v.Today},
		{"Yesterday", v.Yesterday},
		{"Now", v.Realtime},
	} {
		buf.WriteString(`<dt>` + row.label + `</dt><dd>` + strconv.Itoa(row.n) + `</dd>`)
	}
	buf.WriteString(`</dl></div>`)
}
