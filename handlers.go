package pubnotion

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/pubnotion/content"
	"github.com/eringen/pubnotion/notion"
	"github.com/eringen/pubnotion/views"
)

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	posts, err := a.Cache.ListPosts(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	sidebar, err := a.sidebar(c)
	if err != nil {
		return err
	}
	site := a.Config.site()
	meta := views.PageMeta{
		Title:       a.Config.Name,
		Description: a.Config.Description,
		Keywords:    JoinTags(tags),
		URL:         BuildURL(a.Config.URL),
		OGType:      "website",
		JSONLD:      views.WebsiteJsonLD(site),
	}
	if tag != "" {
		meta.Title = "#" + tag
	}
	return Render(c, a.Views.Home(views.HomePage{
		Site:      site,
		Meta:      meta,
		Posts:     posts,
		ActiveTag: tag,
		Tags:      tags,
		Sidebar:   sidebar,
	}))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	slug := c.Param("slug")
	if s, err := url.PathUnescape(slug); err == nil {
		slug = s
	}
	post, err := a.Cache.PostBySlug(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	ct, err := a.Cache.Content(ctx, post.PageID)
	if errors.Is(err, ErrNotFound) {
		c.Logger().Warnf("post %q points at missing page %s", post.Slug, post.PageID)
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	sidebar, err := a.sidebar(c)
	if err != nil {
		return err
	}
	site := a.Config.site()
	return Render(c, a.Views.Article(views.ArticlePage{
		Site: site,
		Meta: views.PageMeta{
			Title:       post.Title,
			Description: postDescription(post),
			Keywords:    JoinTags(post.Tags),
			URL:         BuildURL(a.Config.URL, "posting", post.Slug),
			OGType:      "article",
			JSONLD:      views.BlogPostingJsonLD(site, post),
		},
		Post:    post,
		Body:    a.renderContent(ct),
		Sidebar: sidebar,
	}))
}

// handleMention renders any Notion page by id. Page mentions inside posts
// link here.
func (a *App) handleMention(c echo.Context) error {
	id := c.Param("id")
	if !validPageID(id) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	ct, err := a.Cache.Content(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}
	sidebar, err := a.sidebar(c)
	if err != nil {
		return err
	}
	post := postFromContent(id, ct)
	return Render(c, a.Views.Article(views.ArticlePage{
		Site: a.Config.site(),
		Meta: views.PageMeta{
			Title:       post.Title,
			Description: postDescription(post),
			Keywords:    JoinTags(post.Tags),
			URL:         BuildURL(a.Config.URL, "mention", id),
			OGType:      "article",
		},
		Post:    post,
		Body:    a.renderContent(ct),
		Sidebar: sidebar,
	}))
}

func (a *App) renderContent(ct content.Content) templ.Component {
	return a.Renderer.RenderContent(ct.Blocks, content.ExtractHeadings(ct.Blocks))
}

// sidebar loads the category tree and, when analytics is on, the view
// counters. A failing counter query hides the counters instead of failing
// the page.
func (a *App) sidebar(c echo.Context) (views.Sidebar, error) {
	ctx := c.Request().Context()
	tree, err := a.Cache.Categories(ctx)
	if err != nil {
		return views.Sidebar{}, err
	}
	sb := views.Sidebar{Categories: tree}
	if a.analyticsStore != nil {
		sum, err := a.analyticsStore.Summary(ctx, time.Now())
		if err != nil {
			c.Logger().Warnf("view summary: %v", err)
		} else {
			sb.Views = sum
		}
	}
	return sb, nil
}

func postFromContent(id string, ct content.Content) notion.Post {
	p := ct.Page
	var date string
	if prop, ok := p.Property("Date"); ok {
		date = prop.DateStart()
	}
	return notion.Post{
		ID:          p.ID,
		PageID:      id,
		Title:       p.Title(),
		Date:        date,
		Tags:        p.Tags(),
		Description: p.Description(),
	}
}

func postDescription(p notion.Post) string {
	if strings.TrimSpace(p.Description) != "" {
		return p.Description
	}
	return p.Title
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleHighlightCSS(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderContentType, "text/css; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return a.Renderer.WriteCSS(c.Response())
}

func handlePostingRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.staticDir, "favicon.svg"))
}

func (a *App) handleRobots(c echo.Context) error {
	base := strings.TrimRight(a.Config.URL, "/")
	body := "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/\n\nSitemap: " + base + "/sitemap.xml\n"
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
