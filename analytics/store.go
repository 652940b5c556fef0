package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// tsLayout is the stored timestamp format. It sorts lexically and is
// understood by SQLite's strftime.
const tsLayout = "2006-01-02 15:04:05"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

// Store provides database operations for analytics.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the analytics database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			referrer TEXT,
			screen_size TEXT,
			timestamp TEXT NOT NULL,
			duration_sec INTEGER DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS bot_visits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_visits_timestamp ON visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_visits_visitor_id ON visits(visitor_id);
		CREATE INDEX IF NOT EXISTS idx_visits_path ON visits(path);

		CREATE INDEX IF NOT EXISTS idx_bot_visits_timestamp ON bot_visits(timestamp);
		CREATE INDEX IF NOT EXISTS idx_bot_visits_name ON bot_visits(bot_name);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// currentSchemaVersion is the latest schema version. Increment when adding migrations.
const currentSchemaVersion = 1

// migrate applies incremental schema migrations based on a version stored in the settings table.
func (s *Store) migrate() error {
	verStr, err := s.GetSetting("schema_version")
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	version := 0
	if verStr != "" {
		version, err = strconv.Atoi(verStr)
		if err != nil {
			return fmt.Errorf("parse schema version %q: %w", verStr, err)
		}
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported %d", version, currentSchemaVersion)
	}
	return s.SetSetting("schema_version", strconv.Itoa(currentSchemaVersion))
}

// GetSetting retrieves a setting value by key. Returns empty string if not found.
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return val, err
}

// SetSetting stores a setting value by key (upsert).
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveVisit stores a new visit.
func (s *Store) SaveVisit(ctx context.Context, v *Visit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO visits
		(visitor_id, session_id, ip_hash, browser, os, device, path, referrer, screen_size, timestamp, duration_sec)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.SessionID, v.IPHash, v.Browser, v.OS, v.Device, v.Path,
		v.Referrer, v.ScreenSize, ts(v.Timestamp), v.DurationSec)
	return err
}

// UpdateVisitDuration sets the duration of the most recent visit for a visitor and path.
func (s *Store) UpdateVisitDuration(ctx context.Context, visitorID, path string, durationSec int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE visits SET duration_sec = ?
		WHERE id = (SELECT id FROM visits WHERE visitor_id = ? AND path = ? ORDER BY timestamp DESC, id DESC LIMIT 1)`,
		durationSec, visitorID, path)
	return err
}

// SaveBotVisit stores a new bot visit.
func (s *Store) SaveBotVisit(ctx context.Context, bv *BotVisit) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO bot_visits (bot_name, ip_hash, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?, ?)`,
		bv.BotName, bv.IPHash, bv.UserAgent, bv.Path, ts(bv.Timestamp))
	return err
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, err
}

// dimension groups rows of table by column. Only trusted identifiers are passed.
func (s *Store) dimension(ctx context.Context, table, column string, from, to time.Time) ([]DimensionStat, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT COALESCE(%[2]s, ''), COUNT(*) AS n FROM %[1]s
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY %[2]s ORDER BY n DESC, %[2]s LIMIT 10`, table, column), ts(from), ts(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

func (s *Store) topPages(ctx context.Context, table string, from, to time.Time) ([]PageStat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, COUNT(*) AS views FROM `+table+`
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY path ORDER BY views DESC, path LIMIT 10`, ts(from), ts(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []PageStat{}
	for rows.Next() {
		var p PageStat
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// series buckets rows of table by hour, day or month.
func (s *Store) series(ctx context.Context, table string, from, to time.Time, hourly, monthly bool) ([]DailyView, error) {
	format := "%Y-%m-%d"
	if hourly {
		format = "%H:00"
	} else if monthly {
		format = "%Y-%m"
	}
	rows, err := s.db.QueryContext(ctx, `SELECT strftime('`+format+`', timestamp) AS bucket, COUNT(*) FROM `+table+`
		WHERE timestamp >= ? AND timestamp < ?
		GROUP BY bucket ORDER BY MIN(timestamp)`, ts(from), ts(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []DailyView{}
	for rows.Next() {
		var d DailyView
		if err := rows.Scan(&d.Date, &d.Views); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// GetStats returns aggregated statistics for [from, to). The queries run concurrently.
func (s *Store) GetStats(ctx context.Context, from, to time.Time, hourly, monthly bool) (*Stats, error) {
	stats := &Stats{
		Period:        from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
		TopPages:      []PageStat{},
		LatestPages:   []LatestPageVisit{},
		BrowserStats:  []DimensionStat{},
		OSStats:       []DimensionStat{},
		DeviceStats:   []DimensionStat{},
		ReferrerStats: []DimensionStat{},
		DailyViews:    []DailyView{},
	}

	// Each goroutine writes a distinct field of stats.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		stats.TotalViews, err = s.count(gctx, `SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?`, ts(from), ts(to))
		if err != nil {
			return fmt.Errorf("count views: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		stats.UniqueVisitors, err = s.count(gctx, `SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ? AND timestamp < ?`, ts(from), ts(to))
		if err != nil {
			return fmt.Errorf("count unique visitors: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var avg sql.NullFloat64
		err := s.db.QueryRowContext(gctx, `SELECT AVG(duration_sec) FROM visits
			WHERE timestamp >= ? AND timestamp < ? AND duration_sec > 0`, ts(from), ts(to)).Scan(&avg)
		if err != nil {
			return fmt.Errorf("avg duration: %w", err)
		}
		if avg.Valid {
			stats.AvgDuration = int(avg.Float64)
		}
		return nil
	})
	g.Go(func() (err error) {
		stats.TopPages, err = s.topPages(gctx, "visits", from, to)
		if err != nil {
			return fmt.Errorf("top pages: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		latest, err := s.latestPages(gctx, from, to)
		if err != nil {
			return fmt.Errorf("latest pages: %w", err)
		}
		stats.LatestPages = latest
		return nil
	})
	dims := []struct {
		column string
		dst    *[]DimensionStat
	}{
		{"browser", &stats.BrowserStats},
		{"os", &stats.OSStats},
		{"device", &stats.DeviceStats},
		{"referrer", &stats.ReferrerStats},
	}
	for _, d := range dims {
		g.Go(func() error {
			result, err := s.dimension(gctx, "visits", d.column, from, to)
			if err != nil {
				return fmt.Errorf("%s stats: %w", d.column, err)
			}
			*d.dst = result
			return nil
		})
	}
	g.Go(func() (err error) {
		stats.DailyViews, err = s.series(gctx, "visits", from, to, hourly, monthly)
		if err != nil {
			return fmt.Errorf("views series: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) latestPages(ctx context.Context, from, to time.Time) ([]LatestPageVisit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, timestamp, browser FROM visits
		WHERE timestamp >= ? AND timestamp < ?
		ORDER BY timestamp DESC, id DESC LIMIT 10`, ts(from), ts(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []LatestPageVisit{}
	for rows.Next() {
		var v LatestPageVisit
		if err := rows.Scan(&v.Path, &v.Timestamp, &v.Browser); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// GetBotStats returns aggregated bot statistics for [from, to).
func (s *Store) GetBotStats(ctx context.Context, from, to time.Time, hourly, monthly bool) (*BotStats, error) {
	stats := &BotStats{
		Period: from.Format("2006-01-02") + " to " + to.Format("2006-01-02"),
	}

	var err error
	stats.TotalVisits, err = s.count(ctx, `SELECT COUNT(*) FROM bot_visits WHERE timestamp >= ? AND timestamp < ?`, ts(from), ts(to))
	if err != nil {
		return nil, fmt.Errorf("count bot visits: %w", err)
	}
	if stats.TopBots, err = s.dimension(ctx, "bot_visits", "bot_name", from, to); err != nil {
		return nil, fmt.Errorf("top bots: %w", err)
	}
	if stats.TopPages, err = s.topPages(ctx, "bot_visits", from, to); err != nil {
		return nil, fmt.Errorf("top bot pages: %w", err)
	}
	if stats.DailyVisits, err = s.series(ctx, "bot_visits", from, to, hourly, monthly); err != nil {
		return nil, fmt.Errorf("bot views: %w", err)
	}
	return stats, nil
}

// RealtimeWindow is how far back Summary.Realtime looks.
const RealtimeWindow = 30 * time.Minute

// Summary returns page-view counters relative to now (UTC days).
func (s *Store) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	yesterday := dayStart.AddDate(0, 0, -1)

	var sum Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		sum.Total, err = s.count(gctx, `SELECT COUNT(*) FROM visits`)
		return err
	})
	g.Go(func() (err error) {
		sum.Today, err = s.count(gctx, `SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?`, ts(dayStart), ts(dayEnd))
		return err
	})
	g.Go(func() (err error) {
		sum.Yesterday, err = s.count(gctx, `SELECT COUNT(*) FROM visits WHERE timestamp >= ? AND timestamp < ?`, ts(yesterday), ts(dayStart))
		return err
	})
	g.Go(func() (err error) {
		sum.Realtime, err = s.count(gctx, `SELECT COUNT(*) FROM visits WHERE timestamp >= ?`, ts(now.Add(-RealtimeWindow)))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("view summary: %w", err)
	}
	return &sum, nil
}

// GetRealtimeVisitors returns the number of unique visitors in the last 5 minutes.
func (s *Store) GetRealtimeVisitors(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-5 * time.Minute)
	return s.count(ctx, `SELECT COUNT(DISTINCT visitor_id) FROM visits WHERE timestamp >= ?`, ts(cutoff))
}

// CleanupOldVisits removes visits and bot visits older than the retention period.
func (s *Store) CleanupOldVisits(ctx context.Context, retentionDays int) error {
	cutoff := ts(time.Now().UTC().AddDate(0, 0, -retentionDays))
	if _, err := s.db.ExecContext(ctx, `DELETE FROM visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup visits: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bot_visits WHERE timestamp < ?`, cutoff); err != nil {
		return fmt.Errorf("cleanup bot_visits: %w", err)
	}
	return nil
}
