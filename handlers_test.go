package pubnotion

import (
	"bytes"
	"encoding/xml"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func imageServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gopher.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHomeListsPublishedPosts(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`href="/posting/learning-go/">Learning Go</a>`,
		`Web &lt;Basics&gt;`,
		`<summary>Dev</summary>`,
		`<summary>Go</summary>`,
		`<link rel="canonical" href="https://example.com">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home missing %q", want)
		}
	}
	if strings.Contains(body, "Draft") {
		t.Error("draft listed on home page")
	}
	if strings.Contains(body, `class="views"`) {
		t.Error("view counters shown with analytics disabled")
	}
}

func TestHomeTagFilter(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	body := get(t, app, "/?tag=PROGRAMMING").Body.String()
	if !strings.Contains(body, `class="post-title" href="/posting/learning-go/"`) {
		t.Error("tag filter should match case-insensitively")
	}
	if strings.Contains(body, `class="post-title" href="/posting/web-basics/"`) {
		t.Error("untagged post shown in filtered list")
	}
}

func TestPostPage(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 10, 10))
	app := newTestApp(t, newFakeSource(srv.URL+"/gopher.png"), nil)

	rec := get(t, app, "/posting/learning-go/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`<h1 class="post-title">Learning Go</h1>`,
		`<title>Learning Go | Notes</title>`,
		`<meta name="description" content="Notes on Go">`,
		`<meta name="keywords" content="go, Programming">`,
		`"@type":"BlogPosting"`,
		`<a href="#h-intro">Intro</a>`,
		`id="h-intro"`,
		`href="/mention/` + pageAbout + `/"`,
		`src="/media/` + blockPhoto + `.jpg"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("post page missing %q", want)
		}
	}
	if strings.Contains(body, srv.URL) {
		t.Error("hosted image URL leaked into the page")
	}
}

func TestPostPageUnpublishedSlug(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/posting/draft/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "unfinished") {
		t.Fatalf("status = %d; draft should be reachable by slug", rec.Code)
	}
}

func TestPostPageNotFound(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/posting/nope/")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Page not found") {
		t.Error("expected NotFound view")
	}
}

func TestPostingRedirects(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	for _, path := range []string{"/posting/", "/posting"} {
		rec := get(t, app, path)
		if rec.Code != http.StatusMovedPermanently {
			t.Errorf("GET %s status = %d, want 301", path, rec.Code)
		}
	}
	rec := get(t, app, "/posting/learning-go")
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/posting/learning-go/" {
		t.Errorf("missing trailing slash: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestMentionPage(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/mention/"+pageAbout+"/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "About me") || !strings.Contains(body, "Hello from about") {
		t.Errorf("mention page body:\n%s", body)
	}

	for _, id := range []string{"99999999999999999999999999999999", "not-a-page"} {
		if rec := get(t, app, "/mention/"+id+"/"); rec.Code != http.StatusNotFound {
			t.Errorf("GET /mention/%s/ status = %d, want 404", id, rec.Code)
		}
	}
}

func TestMediaProxy(t *testing.T) {
	srv := imageServer(t, pngBytes(t, 1600, 400))
	src := newFakeSource(srv.URL + "/gopher.png")
	app := newTestApp(t, src, nil)

	rec := get(t, app, "/media/"+blockPhoto+".jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("Cache-Control = %q", cc)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode proxied image: %v", err)
	}
	if format != "jpeg" || cfg.Width != maxImageWidth || cfg.Height != 300 {
		t.Errorf("proxied image = %s %dx%d, want jpeg %dx300", format, cfg.Width, cfg.Height, maxImageWidth)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/media/" + blockPhoto, http.StatusNotFound},
		{"/media/../../etc.jpg", http.StatusNotFound},
		{"/media/99999999999999999999999999999999.jpg", http.StatusNotFound},
		{"/media/77777777777777777777777777777777.jpg", http.StatusNotFound},
	}
	for _, tt := range tests {
		if rec := get(t, app, tt.path); rec.Code != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, rec.Code, tt.want)
		}
	}
}

func TestMediaProxyDownloadFailure(t *testing.T) {
	srv := imageServer(t, nil)
	app := newTestApp(t, newFakeSource(srv.URL+"/missing.png"), nil)

	rec := get(t, app, "/media/"+blockPhoto+".jpg")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Something went wrong") {
		t.Error("expected ServerError view")
	}
}

func TestSitemap(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var set sitemapURLSet
	if err := xml.Unmarshal(rec.Body.Bytes(), &set); err != nil {
		t.Fatalf("parse sitemap: %v", err)
	}
	if len(set.URLs) != 3 {
		t.Fatalf("sitemap has %d urls, want 3", len(set.URLs))
	}
	if set.URLs[1].Loc != "https://example.com/posting/learning-go/" || set.URLs[1].LastMod != "2024-03-05" {
		t.Errorf("sitemap entry = %+v", set.URLs[1])
	}
}

func TestFeed(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/feed.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var feed rssXML
	if err := xml.Unmarshal(rec.Body.Bytes(), &feed); err != nil {
		t.Fatalf("parse feed: %v", err)
	}
	if feed.Channel.Title != "Notes" || len(feed.Channel.Items) != 2 {
		t.Fatalf("feed = %+v", feed.Channel)
	}
	item := feed.Channel.Items[1]
	if item.Description != "Web <Basics>" {
		t.Errorf("description should fall back to title, got %q", item.Description)
	}
	if item.PubDate != "Thu, 01 Feb 2024 00:00:00 +0000" {
		t.Errorf("pubDate = %q", item.PubDate)
	}
}

func TestRobots(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	body := get(t, app, "/robots.txt").Body.String()
	if !strings.Contains(body, "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots.txt = %q", body)
	}
}

func TestEmbeddedAssets(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	for _, path := range []string{"/public/style.css", "/public/highlight.css"} {
		rec := get(t, app, path)
		if rec.Code != http.StatusOK || rec.Body.Len() == 0 {
			t.Errorf("GET %s status = %d len = %d", path, rec.Code, rec.Body.Len())
		}
	}
	if body := get(t, app, "/public/highlight.css").Body.String(); !strings.Contains(body, ".chroma") {
		t.Error("highlight.css should contain chroma classes")
	}
}

func TestTrackingScriptFollowsAnalytics(t *testing.T) {
	off := newTestApp(t, newFakeSource(""), nil)
	if rec := get(t, off, "/public/analytics.js"); rec.Code != http.StatusNotFound {
		t.Errorf("analytics.js status = %d with analytics disabled, want 404", rec.Code)
	}
	if strings.Contains(get(t, off, "/").Body.String(), "analytics.js") {
		t.Error("page references analytics.js with analytics disabled")
	}

	on := newTestApp(t, newFakeSource(""), func(cfg *SiteConfig) { cfg.AnalyticsEnabled = true })
	if rec := get(t, on, "/public/analytics.js"); rec.Code != http.StatusOK || rec.Body.Len() == 0 {
		t.Errorf("analytics.js status = %d len = %d with analytics enabled", rec.Code, rec.Body.Len())
	}
	if !strings.Contains(get(t, on, "/").Body.String(), `<script src="/public/analytics.js" defer></script>`) {
		t.Error("page missing tracking script with analytics enabled")
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)

	rec := get(t, app, "/")
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("X-Frame-Options = %q", rec.Header().Get("X-Frame-Options"))
	}
	if rec.Header().Get("Cache-Control") != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", rec.Header().Get("Cache-Control"))
	}
}
