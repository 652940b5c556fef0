package pubnotion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubnotion/views"
)

// exportConcurrency bounds pages rendered in parallel during Export.
const exportConcurrency = 4

var errExportNotFound = errors.New("page not found")

// ExportResult lists the site paths written by Export.
type ExportResult struct {
	Paths []string
}

// Export renders the public site into dir as static files: the post list,
// every published post, pages they mention, proxied images, the sitemap,
// feed, robots.txt and framework assets. Pages are rendered through the
// same handlers that serve them live.
func (a *App) Export(ctx context.Context, dir string) (*ExportResult, error) {
	if err := a.Init(); err != nil {
		return nil, err
	}
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("export: list posts: %w", err)
	}

	fixed := []string{
		"/",
		"/sitemap.xml",
		"/feed.xml",
		"/robots.txt",
		"/public/style.css",
		"/public/highlight.css",
	}
	if a.analyticsHandler != nil {
		fixed = append(fixed, "/public/analytics.js")
	}
	if _, err := os.Stat(filepath.Join(a.staticDir, "favicon.svg")); err == nil {
		fixed = append(fixed, "/favicon.svg")
	}
	if err := copyStatic(a.staticDir, filepath.Join(dir, "public")); err != nil {
		return nil, fmt.Errorf("export: static files: %w", err)
	}

	var (
		mu     sync.Mutex
		extras []string
		seen   = make(map[string]struct{})
	)
	addExtra := func(p string) {
		mu.Lock()
		defer mu.Unlock()
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			extras = append(extras, p)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for _, p := range fixed {
		g.Go(func() error { return a.exportPath(gctx, dir, p) })
	}
	for _, post := range posts {
		if post.Slug == "" {
			continue
		}
		g.Go(func() error {
			if err := a.exportPath(gctx, dir, views.PostPath(post.Slug)); err != nil {
				return err
			}
			ct, err := a.Cache.Content(gctx, post.PageID)
			if err != nil {
				return fmt.Errorf("export: content of %q: %w", post.Slug, err)
			}
			for _, id := range hostedImageIDs(ct.Blocks) {
				addExtra("/media/" + id + ".jpg")
			}
			for _, id := range mentionedPageIDs(ct.Blocks) {
				addExtra("/mention/" + id + "/")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Mentioned pages may not be shared with the integration; skip those.
	var written []string
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for _, p := range extras {
		g.Go(func() error {
			err := a.exportPath(gctx, dir, p)
			if errors.Is(err, errExportNotFound) {
				a.Echo.Logger.Warnf("export: skipping %s: not found", p)
				return nil
			}
			if err != nil {
				return err
			}
			mu.Lock()
			written = append(written, p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(written)

	res := &ExportResult{Paths: append([]string{}, fixed...)}
	for _, post := range posts {
		if post.Slug != "" {
			res.Paths = append(res.Paths, views.PostPath(post.Slug))
		}
	}
	res.Paths = append(res.Paths, written...)
	return res, nil
}

// exportPath renders one site path through Echo and writes the body under
// dir. Paths ending in "/" become index.html files.
func (a *App) exportPath(ctx context.Context, dir, sitePath string) error {
	req := httptest.NewRequest(http.MethodGet, sitePath, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code == http.StatusNotFound {
		return fmt.Errorf("export %s: %w", sitePath, errExportNotFound)
	}
	if rec.Code != http.StatusOK {
		return fmt.Errorf("export %s: status %d", sitePath, rec.Code)
	}

	rel := strings.TrimPrefix(sitePath, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	target := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("export %s: %w", sitePath, err)
	}
	if err := os.WriteFile(target, rec.Body.Bytes(), 0o644); err != nil {
		return fmt.Errorf("export %s: %w", sitePath, err)
	}
	return nil
}

// copyStatic copies the user's static directory, if any, into dst.
func copyStatic(src, dst string) error {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
