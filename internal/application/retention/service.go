package retention

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/team-progress-api/internal/domain"
)

type alertStore interface {
	ScanOlderThan(ctx context.Context, cutoff time.Time) ([]domain.GroupAlert, error)
	HardDelete(ctx context.Context, alertID string) error
}

type logStore interface {
	ScanOlderThan(ctx context.Context, cutoff time.Time) ([]domain.NotificationLog, error)
	HardDelete(ctx context.Context, logID string) error
}

// Result reports how many records a purge actually removed.
type Result struct {
	AlertsDeleted int `json:"alerts_deleted"`
	LogsDeleted   int `json:"logs_deleted"`
}

// Cleaner purges alert and notification-log records past the retention horizon.
type Cleaner interface {
	// Purge deletes records created strictly before now-olderThan. Deletion is
	// sequential and best-effort: a failed delete is logged and skipped, and
	// the counts always reflect what was actually removed.
	Purge(ctx context.Context, olderThan time.Duration, now time.Time) (Result, error)
}

type cleaner struct {
	alerts alertStore
	logs   logStore
}

func NewCleaner(alerts alertStore, logs logStore) Cleaner {
	return &cleaner{alerts: alerts, logs: logs}
}

func (c *cleaner) Purge(ctx context.Context, olderThan time.Duration, now time.Time) (Result, error) {
	cutoff := now.Add(-olderThan)
	var res Result
	var errs []error

	alerts, err := c.alerts.ScanOlderThan(ctx, cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	for _, a := range alerts {
		if err := c.alerts.HardDelete(ctx, a.AlertID); err != nil {
			log.Printf("purge: delete alert %s: %v", a.AlertID, err)
			errs = append(errs, err)
			continue
		}
		res.AlertsDeleted++
	}

	logs, err := c.logs.ScanOlderThan(ctx, cutoff)
	if err != nil {
		errs = append(errs, err)
	}
	for _, l := range logs {
		if err := c.logs.HardDelete(ctx, l.LogID); err != nil {
			log.Printf("purge: delete log %s: %v", l.LogID, err)
			errs = append(errs, err)
			continue
		}
		res.LogsDeleted++
	}

	return res, errors.Join(errs...)
}
