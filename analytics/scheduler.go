package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
)

// DefaultCleanupSchedule runs retention cleanup daily at 03:30.
const DefaultCleanupSchedule = "30 3 * * *"

// StartCleanupScheduler deletes data older than retentionDays on the given
// cron schedule. The returned function stops the scheduler and waits for a
// running cleanup to finish.
func (s *Store) StartCleanupScheduler(retentionDays int, schedule string, logger echo.Logger) (func(), error) {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := s.CleanupOldVisits(ctx, retentionDays); err != nil {
			logger.Errorf("analytics cleanup failed: %v", err)
			return
		}
		logger.Debugf("analytics cleanup done (retention %d days)", retentionDays)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule analytics cleanup %q: %w", schedule, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}
