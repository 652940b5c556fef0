package analytics

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func saveVisit(t *testing.T, s *Store, visitor, path, browser string, at time.Time) {
	t.Helper()
	err := s.SaveVisit(context.Background(), &Visit{
		VisitorID: visitor,
		SessionID: "s-" + visitor,
		IPHash:    "ip",
		Browser:   browser,
		OS:        "Linux",
		Device:    "Desktop",
		Path:      path,
		Referrer:  "Direct",
		Timestamp: at,
	})
	if err != nil {
		t.Fatalf("SaveVisit: %v", err)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetSetting("missing")
	if err != nil || got != "" {
		t.Fatalf("GetSetting(missing) = %q, %v", got, err)
	}
	if err := s.SetSetting("k", "v1"); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if err := s.SetSetting("k", "v2"); err != nil {
		t.Fatalf("SetSetting overwrite: %v", err)
	}
	if got, _ := s.GetSetting("k"); got != "v2" {
		t.Fatalf("GetSetting(k) = %q, want v2", got)
	}
	if ver, _ := s.GetSetting("schema_version"); ver != "1" {
		t.Fatalf("schema_version = %q, want 1", ver)
	}
}

func TestInitSaltPersists(t *testing.T) {
	s := newTestStore(t)
	if err := InitSalt(s); err != nil {
		t.Fatalf("InitSalt: %v", err)
	}
	stored, err := s.GetSetting("hash_salt")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if stored == "" || stored != getSalt() {
		t.Fatalf("stored salt %q does not match in-memory salt %q", stored, getSalt())
	}
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	saveVisit(t, s, "a", "/", "Chrome", base)
	saveVisit(t, s, "a", "/posting/go/", "Chrome", base.Add(time.Minute))
	saveVisit(t, s, "b", "/posting/go/", "Firefox", base.Add(2*time.Minute))
	saveVisit(t, s, "c", "/", "Firefox", base.AddDate(0, 0, -30)) // outside range

	if err := s.UpdateVisitDuration(ctx, "a", "/posting/go/", 40); err != nil {
		t.Fatalf("UpdateVisitDuration: %v", err)
	}

	from := base.Add(-time.Hour)
	to := base.Add(time.Hour)
	stats, err := s.GetStats(ctx, from, to, false, false)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalViews != 3 {
		t.Errorf("TotalViews = %d, want 3", stats.TotalViews)
	}
	if stats.UniqueVisitors != 2 {
		t.Errorf("UniqueVisitors = %d, want 2", stats.UniqueVisitors)
	}
	if stats.AvgDuration != 40 {
		t.Errorf("AvgDuration = %d, want 40", stats.AvgDuration)
	}
	if len(stats.TopPages) == 0 || stats.TopPages[0].Path != "/posting/go/" || stats.TopPages[0].Views != 2 {
		t.Errorf("TopPages = %+v", stats.TopPages)
	}
	if len(stats.LatestPages) != 3 || stats.LatestPages[0].Browser != "Firefox" {
		t.Errorf("LatestPages = %+v", stats.LatestPages)
	}
	if len(stats.BrowserStats) != 2 {
		t.Errorf("BrowserStats = %+v", stats.BrowserStats)
	}
	if len(stats.DailyViews) != 1 || stats.DailyViews[0].Date != "2024-05-01" || stats.DailyViews[0].Views != 3 {
		t.Errorf("DailyViews = %+v", stats.DailyViews)
	}
}

func TestGetBotStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{"Googlebot", "Googlebot", "Bingbot"} {
		if err := s.SaveBotVisit(ctx, &BotVisit{BotName: name, IPHash: "x", UserAgent: name, Path: "/", Timestamp: now}); err != nil {
			t.Fatalf("SaveBotVisit: %v", err)
		}
	}

	stats, err := s.GetBotStats(ctx, now.Add(-time.Hour), now.Add(time.Hour), true, false)
	if err != nil {
		t.Fatalf("GetBotStats: %v", err)
	}
	if stats.TotalVisits != 3 {
		t.Errorf("TotalVisits = %d, want 3", stats.TotalVisits)
	}
	if len(stats.TopBots) != 2 || stats.TopBots[0].Name != "Googlebot" || stats.TopBots[0].Count != 2 {
		t.Errorf("TopBots = %+v", stats.TopBots)
	}
	if len(stats.DailyVisits) != 1 || stats.DailyVisits[0].Date != "12:00" {
		t.Errorf("DailyVisits = %+v", stats.DailyVisits)
	}
}

func TestSummary(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

	saveVisit(t, s, "a", "/", "Chrome", now.Add(-5*time.Minute)) // today, realtime
	saveVisit(t, s, "b", "/", "Chrome", now.Add(-2*time.Hour))   // today
	saveVisit(t, s, "c", "/", "Chrome", now.Add(-20*time.Hour))  // yesterday
	saveVisit(t, s, "d", "/", "Chrome", now.AddDate(0, 0, -10))  // older

	sum, err := s.Summary(context.Background(), now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	want := Summary{Total: 4, Today: 2, Yesterday: 1, Realtime: 1}
	if *sum != want {
		t.Fatalf("Summary = %+v, want %+v", *sum, want)
	}
}

func TestCleanupOldVisits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	saveVisit(t, s, "old", "/", "Chrome", now.AddDate(0, 0, -100))
	saveVisit(t, s, "new", "/", "Chrome", now.Add(-time.Hour))

	if err := s.CleanupOldVisits(ctx, 90); err != nil {
		t.Fatalf("CleanupOldVisits: %v", err)
	}
	sum, err := s.Summary(ctx, now)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 1 {
		t.Fatalf("Total after cleanup = %d, want 1", sum.Total)
	}
}
