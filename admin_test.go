package pubnotion

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var csrfField = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

func newAdminApp(t *testing.T) *App {
	return newTestApp(t, newFakeSource(""), func(cfg *SiteConfig) {
		cfg.AdminPassword = "hunter2"
		cfg.SessionSecret = "0123456789abcdef0123456789abcdef"
		cfg.AnalyticsEnabled = true
	})
}

func serve(app *App, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

// loginForm fetches the login page and returns its CSRF cookie and token.
func loginForm(t *testing.T, app *App) ([]*http.Cookie, string) {
	t.Helper()
	rec := get(t, app, "/admin/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/ status = %d", rec.Code)
	}
	m := csrfField.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatalf("login page has no CSRF field:\n%s", rec.Body.String())
	}
	return rec.Result().Cookies(), m[1]
}

func postLogin(app *App, cookies []*http.Cookie, token, password string) *httptest.ResponseRecorder {
	form := url.Values{"password": {password}, "_csrf": {token}}
	req := httptest.NewRequest(http.MethodPost, "/admin/login/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return serve(app, req, cookies)
}

func TestAdminLoginFlow(t *testing.T) {
	app := newAdminApp(t)

	stats := httptest.NewRequest(http.MethodGet, "/admin/analytics/api/stats", nil)
	if rec := serve(app, stats, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("stats without session status = %d, want 401", rec.Code)
	}

	cookies, token := loginForm(t, app)
	rec := postLogin(app, cookies, token, "hunter2")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", rec.Code)
	}
	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("login did not set a session cookie")
	}

	dash := serve(app, httptest.NewRequest(http.MethodGet, "/admin/", nil), []*http.Cookie{sessionCookie})
	if !strings.Contains(dash.Body.String(), "Sign out") {
		t.Errorf("dashboard not shown after login:\n%s", dash.Body.String())
	}
	if cc := dash.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("admin Cache-Control = %q", cc)
	}

	stats = httptest.NewRequest(http.MethodGet, "/admin/analytics/api/stats?period=week", nil)
	if rec := serve(app, stats, []*http.Cookie{sessionCookie}); rec.Code != http.StatusOK {
		t.Fatalf("stats with session status = %d, want 200", rec.Code)
	}
}

func TestAdminLoginWrongPassword(t *testing.T) {
	app := newAdminApp(t)
	cookies, token := loginForm(t, app)

	rec := postLogin(app, cookies, token, "wrong")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid password.") {
		t.Error("expected error message on login page")
	}
}

func TestAdminLoginRequiresCSRF(t *testing.T) {
	app := newAdminApp(t)
	cookies, _ := loginForm(t, app)

	if rec := postLogin(app, cookies, "forged", "hunter2"); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminLoginRateLimited(t *testing.T) {
	app := newAdminApp(t)
	cookies, token := loginForm(t, app)

	for i := 0; i < 5; i++ {
		postLogin(app, cookies, token, "wrong")
	}
	if rec := postLogin(app, cookies, token, "hunter2"); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
}

func TestAdminRoutesAbsentWithoutPassword(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), nil)
	if rec := get(t, app, "/admin/"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSidebarShowsViewCounts(t *testing.T) {
	app := newTestApp(t, newFakeSource(""), func(cfg *SiteConfig) {
		cfg.AnalyticsEnabled = true
	})

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect",
		strings.NewReader(`{"path":"/posting/learning-go/","screen_size":"1920x1080"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUA)
	if rec := serve(app, req, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("collect status = %d, want 204", rec.Code)
	}

	body := get(t, app, "/").Body.String()
	for _, want := range []string{
		`class="views"`,
		`<dt>Total</dt><dd>1</dd>`,
		`<dt>Today</dt><dd>1</dd>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home missing %q", want)
		}
	}
}
