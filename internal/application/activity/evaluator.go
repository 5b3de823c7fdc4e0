package activity

import (
	"time"

	"github.com/team-progress-api/internal/domain"
)

// Evaluation is the derived activity state of one member at a point in time.
type Evaluation struct {
	Tier           domain.ActivityTier
	DaysInactive   int
	LastActivityAt *time.Time
}

// Evaluate derives a member's activity tier from its full progress history.
// It is a pure function: identical inputs always yield the identical result.
//
// Classification uses rolling thresholds against now: activity within the
// last 24h is up to date, within 24-48h is a warning, beyond 48h (or no
// activity ever) is critical. This is the single source of truth for every
// call path: the status endpoint, the hourly verification and the
// group-alert sweep all classify through here.
//
// The event store does not guarantee query-time ordering, so the most recent
// event is found with a full scan rather than by trusting slice order.
func Evaluate(events []domain.ProgressEvent, now time.Time) Evaluation {
	var last *time.Time
	for i := range events {
		t := events[i].OccurredAt
		if last == nil || t.After(*last) {
			last = &t
		}
	}

	if last == nil {
		return Evaluation{
			Tier:         domain.TierCritical,
			DaysInactive: domain.DaysInactiveNever,
		}
	}

	inactive := now.Sub(*last)
	tier := domain.TierUpToDate
	switch {
	case inactive > 48*time.Hour:
		tier = domain.TierCritical
	case inactive > 24*time.Hour:
		tier = domain.TierWarning
	}

	days := int(inactive.Hours() / 24)
	if days < 0 {
		days = 0
	}
	return Evaluation{
		Tier:           tier,
		DaysInactive:   days,
		LastActivityAt: last,
	}
}
