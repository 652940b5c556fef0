package pubnotion

import (
	"context"

	"github.com/a-h/templ"

	"github.com/eringen/pubnotion/analytics"
	"github.com/eringen/pubnotion/content"
	"github.com/eringen/pubnotion/notion"
	"github.com/eringen/pubnotion/views"
)

// Source is where posts come from. On top of content.Source it can read a
// single block, which the media proxy needs. *notion.Client implements it.
type Source interface {
	content.Source
	GetBlock(ctx context.Context, blockID string) (notion.Block, error)
}

var _ Source = (*notion.Client)(nil)

// ViewFuncs holds the templ components the App renders. Nil fields fall back
// to the defaults in package views.
type ViewFuncs struct {
	Home           func(page views.HomePage) templ.Component
	Article        func(page views.ArticlePage) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(sum *analytics.Summary, csrfToken string) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = views.Home
	}
	if v.Article == nil {
		v.Article = views.Article
	}
	if v.AdminLogin == nil {
		v.AdminLogin = views.AdminLogin
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = views.AdminDashboard
	}
	if v.NotFound == nil {
		v.NotFound = views.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = views.ServerError
	}
}
