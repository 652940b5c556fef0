package views

import (
	"github.com/a-h/templ"

	"github.com/eringen/pubnotion/analytics"
	"github.com/eringen/pubnotion/content"
	"github.com/eringen/pubnotion/notion"
)

// SiteConfig holds the site-wide settings every page needs.
type SiteConfig struct {
	Name        string
	URL         string
	Description string
	Author      string

	// AnalyticsEnabled adds the page-view tracking script to every page.
	AnalyticsEnabled bool
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	Keywords    string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	JSONLD      string
}

// Sidebar is rendered next to every page.
type Sidebar struct {
	Categories *content.CategoryNode
	Views      *analytics.Summary // nil hides the counters
}

// HomePage is the data for the post list.
type HomePage struct {
	Site      SiteConfig
	Meta      PageMeta
	Posts     []notion.Post
	ActiveTag string
	Tags      []string
	Sidebar   Sidebar
}

// ArticlePage is the data for a single post or mentioned page.
type ArticlePage struct {
	Site    SiteConfig
	Meta    PageMeta
	Post    notion.Post
	Body    templ.Component
	Sidebar Sidebar
}
