package pubnotion

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestExport(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 20, 10))
	app := newTestApp(t, newFakeSource(srv.URL+"/gopher.png"), nil)
	if err := os.WriteFile(filepath.Join(app.staticDir, "favicon.svg"), []byte("<svg/>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(app.staticDir, "img"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(app.staticDir, "img", "logo.png"), pngBytes(t, 1, 1), 0o644); err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	res, err := app.Export(context.Background(), out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, rel := range []string{
		"index.html",
		"sitemap.xml",
		"feed.xml",
		"robots.txt",
		"favicon.svg",
		"public/style.css",
		"public/highlight.css",
		"public/img/logo.png",
		"posting/learning-go/index.html",
		"posting/web-basics/index.html",
		"media/" + blockPhoto + ".jpg",
		"mention/" + pageAbout + "/index.html",
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing %s: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "public", "analytics.js")); err == nil {
		t.Error("analytics.js exported with analytics disabled")
	}
	if _, err := os.Stat(filepath.Join(out, "posting", "draft")); err == nil {
		t.Error("draft exported")
	}

	page, err := os.ReadFile(filepath.Join(out, "posting", "learning-go", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), "Learning Go") {
		t.Error("exported post page has no title")
	}
	for _, rel := range []string{"index.html", "posting/learning-go/index.html", "mention/" + pageAbout + "/index.html"} {
		html, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(html), "analytics.js") {
			t.Errorf("%s references analytics.js, which is not exported", rel)
		}
	}

	for _, want := range []string{"/", "/posting/learning-go/", "/media/" + blockPhoto + ".jpg", "/mention/" + pageAbout + "/"} {
		if !slices.Contains(res.Paths, want) {
			t.Errorf("ExportResult missing %s", want)
		}
	}
}

func TestExportSkipsUnsharedMentions(t *testing.T) {
	src := newFakeSource("")
	delete(src.pages, pageAbout)
	delete(src.children, pageAbout)
	// Drop the image so no download is attempted.
	src.children[pageGo] = src.children[pageGo][:3]
	app := newTestApp(t, src, nil)

	out := t.TempDir()
	res, err := app.Export(context.Background(), out)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if slices.Contains(res.Paths, "/mention/"+pageAbout+"/") {
		t.Error("unreachable mention reported as written")
	}
	if _, err := os.Stat(filepath.Join(out, "mention")); err == nil {
		t.Error("mention directory created for unreachable page")
	}
}
