package views

import (
	"bytes"
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/pubnotion/analytics"
	"github.com/eringen/pubnotion/notion"
)

// Home lists published posts, newest first.
func Home(p HomePage) templ.Component {
	body := component(func(_ context.Context, buf *bytes.Buffer) error {
		if len(p.Tags) > 0 {
			buf.WriteString(`<nav class="tags"><a class="` + TagClass(p.ActiveTag == "") + `" href="/">All</a>`)
			for _, tag := range p.Tags {
				buf.WriteString(`<a class="` + TagClass(tag == p.ActiveTag) + `" href="` + esc(TagPath(tag)) + `">` + esc(tag) + `</a>`)
			}
			buf.WriteString(`</nav>`)
		}
		if len(p.Posts) == 0 {
			buf.WriteString(`<p class="empty">No posts yet.</p>`)
			return nil
		}
		buf.WriteString(`<ul class="post-list">`)
		for _, post := range p.Posts {
			buf.WriteString(`<li class="post-item"><a class="post-title" href="` + esc(PostPath(post.Slug)) + `">` + esc(post.Title) + `</a>`)
			writePostMeta(buf, post)
			if post.Description != "" {
				buf.WriteString(`<p class="post-description">` + esc(post.Description) + `</p>`)
			}
			buf.WriteString(`</li>`)
		}
		buf.WriteString(`</ul>`)
		return nil
	})
	return Layout(p.Site, p.Meta, p.Sidebar, body)
}

// Article shows one post with its rendered content.
func Article(p ArticlePage) templ.Component {
	body := component(func(ctx context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<article class="post"><header><h1 class="post-title">` + esc(p.Post.Title) + `</h1>`)
		writePostMeta(buf, p.Post)
		buf.WriteString(`</header><div class="notion">`)
		if p.Body != nil {
			if err := p.Body.Render(ctx, buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</div></article>`)
		return nil
	})
	return Layout(p.Site, p.Meta, p.Sidebar, body)
}

func writePostMeta(buf *bytes.Buffer, post notion.Post) {
	if post.Date == "" && len(post.Tags) == 0 {
		return
	}
	buf.WriteString(`<p class="post-meta">`)
	if post.Date != "" {
		buf.WriteString(`<time datetime="` + esc(post.Date) + `">` + esc(FormatDate(post.Date)) + `</time>`)
	}
	for _, tag := range post.Tags {
		buf.WriteString(` <a class="tag" href="` + esc(TagPath(tag)) + `">#` + esc(tag) + `</a>`)
	}
	buf.WriteString(`</p>`)
}

// NotFound is the 404 page.
func NotFound() templ.Component {
	return simplePage("Not Found", `<h1>Page not found</h1><p>The page you are looking for does not exist. <a href="/">Back to all posts</a>.</p>`)
}

// ServerError is the 5xx page.
func ServerError() templ.Component {
	return simplePage("Server Error", `<h1>Something went wrong</h1><p>Please try again in a moment.</p>`)
}

func simplePage(title, inner string) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>` + esc(title) + `</title>`)
		buf.WriteString(`<link rel="stylesheet" href="/public/style.css"></head><body><main class="content">`)
		buf.WriteString(inner)
		buf.WriteString(`</main></body></html>`)
		return nil
	})
}

// AdminLogin is the password form guarding the admin area.
func AdminLogin(showError bool, csrfToken string) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="robots" content="noindex"><title>Admin</title>`)
		buf.WriteString(`<link rel="stylesheet" href="/public/style.css"></head><body><main class="content admin">`)
		buf.WriteString(`<h1>Admin</h1>`)
		if showError {
			buf.WriteString(`<p class="error">Invalid password.</p>`)
		}
		buf.WriteString(`<form method="post" action="/admin/login/">`)
		buf.WriteString(`<input type="hidden" name="_csrf" value="` + esc(csrfToken) + `">`)
		buf.WriteString(`<label>Password <input type="password" name="password" autofocus required></label>`)
		buf.WriteString(`<button type="submit">Sign in</button></form></main></body></html>`)
		return nil
	})
}

// AdminDashboard shows the view counters and links to the analytics API.
// sum is nil when analytics is disabled.
func AdminDashboard(sum *analytics.Summary, csrfToken string) templ.Component {
	return component(func(_ context.Context, buf *bytes.Buffer) error {
		buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="robots" content="noindex"><title>Admin</title>`)
		buf.WriteString(`<link rel="stylesheet" href="/public/style.css"></head><body><main class="content admin">`)
		buf.WriteString(`<h1>Dashboard</h1>`)
		if sum == nil {
			buf.WriteString(`<p>Analytics is disabled.</p>`)
		} else {
			buf.WriteString(`<dl class="summary">`)
			buf.WriteString(`<dt>Total</dt><dd>` + strconv.Itoa(sum.Total) + `</dd>`)
			buf.WriteString(`<dt>Today</dt><dd>` + strconv.Itoa(sum.Today) + `</dd>`)
			buf.WriteString(`<dt>Yesterday</dt><dd>` + strconv.Itoa(sum.Yesterday) + `</dd>`)
			buf.WriteString(`<dt>Last 30 minutes</dt><dd>` + strconv.Itoa(sum.Realtime) + `</dd>`)
			buf.WriteString(`</dl><ul class="stats-links">`)
			for _, period := range []string{"today", "week", "month", "year"} {
				buf.WriteString(`<li><a href="/admin/analytics/api/stats?period=` + period + `">Visits: ` + period + `</a>`)
				buf.WriteString(` &middot; <a href="/admin/analytics/api/bot-stats?period=` + period + `">bots</a></li>`)
			}
			buf.WriteString(`</ul>`)
		}
		buf.WriteString(`<form method="post" action="/admin/logout/">`)
		buf.WriteString(`<input type="hidden" name="_csrf" value="` + esc(csrfToken) + `">`)
		buf.WriteString(`<button type="submit">Sign out</button></form></main></body></html>`)
		return nil
	})
}
