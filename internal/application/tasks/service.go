package tasks

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/team-progress-api/internal/application/activity"
	"github.com/team-progress-api/internal/application/alerting"
	"github.com/team-progress-api/internal/application/notifier"
	"github.com/team-progress-api/internal/application/retention"
	"github.com/team-progress-api/internal/domain"
	"github.com/team-progress-api/internal/pkg/id"
)

// recentLogsWindow and recentLogsLimit bound the task-log read path.
const (
	recentLogsWindow = 24 * time.Hour
	recentLogsLimit  = 50
)

type memberStore interface {
	Scan(ctx context.Context) ([]domain.Member, error)
	ScanActive(ctx context.Context) ([]domain.Member, error)
	Update(ctx context.Context, memberID string, updates map[string]interface{}) error
}

type progressStore interface {
	ListByMember(ctx context.Context, memberID string) ([]domain.ProgressEvent, error)
}

type logStore interface {
	Put(ctx context.Context, l *domain.NotificationLog) error
	ScanSince(ctx context.Context, since time.Time) ([]domain.NotificationLog, error)
}

// Deps holds the collaborators the orchestrator drives.
type Deps struct {
	Members    memberStore
	Progress   progressStore
	Logs       logStore
	Dispatcher notifier.Service
	Alerts     alerting.Service
	Cleaner    retention.Cleaner
}

// Config holds the cron specs and the retention horizon.
type Config struct {
	ReminderCron     string
	VerificationCron string
	AlertSweepCron   string
	CleanupCron      string
	Retention        time.Duration
}

// Orchestrator owns the four recurring tasks. It is constructed once at
// startup and torn down explicitly on shutdown. Each task is a single method
// invoked by both its cron entry and the manual HTTP trigger.
type Orchestrator struct {
	deps Deps
	cfg  Config

	c   *cron.Cron
	now func() time.Time

	// One run-lock per task: a new firing is skipped while the previous
	// firing of the same task is still running.
	remindersLock    sync.Mutex
	inactiveLock     sync.Mutex
	verificationLock sync.Mutex
	sweepLock        sync.Mutex
	cleanupLock      sync.Mutex
}

func NewOrchestrator(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{deps: deps, cfg: cfg, now: time.Now}
}

// Start registers the cron entries and launches the scheduler.
func (o *Orchestrator) Start() error {
	o.c = cron.New()
	entries := []struct {
		spec string
		name string
		run  func(context.Context) error
	}{
		{o.cfg.ReminderCron, "daily_reminders", o.RunDailyReminders},
		{o.cfg.VerificationCron, "activity_verification", o.RunActivityVerification},
		{o.cfg.AlertSweepCron, "group_alert_sweep", o.RunGroupAlertSweep},
		{o.cfg.CleanupCron, "retention_cleanup", o.RunRetentionCleanup},
	}
	for _, e := range entries {
		e := e
		if _, err := o.c.AddFunc(e.spec, func() {
			log.Printf("cron: running %s", e.name)
			if err := e.run(context.Background()); err != nil {
				log.Printf("cron: %s failed: %v", e.name, err)
			}
		}); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", e.name, e.spec, err)
		}
	}
	o.c.Start()
	log.Println("scheduled tasks started")
	return nil
}

// Stop halts the scheduler and waits for in-flight runs to finish.
func (o *Orchestrator) Stop() {
	if o.c != nil {
		<-o.c.Stop().Done()
	}
	log.Println("scheduled tasks stopped")
}

// runExclusive executes fn under the task's run-lock; an overlapping firing
// is skipped and logged rather than queued.
func runExclusive(name string, lock *sync.Mutex, fn func() error) error {
	if !lock.TryLock() {
		log.Printf("task %s already running, skipping this firing", name)
		return nil
	}
	defer lock.Unlock()
	return fn()
}

// RunDailyReminders pushes a motivational reminder to every active member
// with at least one device token whose last progress event is more than 24h
// old (or who never recorded one), then appends a notification log entry.
func (o *Orchestrator) RunDailyReminders(ctx context.Context) error {
	return runExclusive("daily_reminders", &o.remindersLock, func() error {
		return o.reminderPass(ctx, domain.TaskDailyReminders, notifier.TitleDailyReminder,
			func(ev activity.Evaluation) bool {
				return ev.Tier != domain.TierUpToDate
			})
	})
}

// RunInactiveReminders is the manual trigger that nudges only the members who
// went silent past the 48h line. A distinct task kind keeps its log entries
// apart from the scheduled daily run.
func (o *Orchestrator) RunInactiveReminders(ctx context.Context) error {
	return runExclusive("inactive_reminders", &o.inactiveLock, func() error {
		return o.reminderPass(ctx, domain.TaskInactiveReminders, notifier.TitleInactivityReminder,
			func(ev activity.Evaluation) bool {
				return ev.Tier == domain.TierCritical
			})
	})
}

func (o *Orchestrator) reminderPass(ctx context.Context, taskKind, title string, eligible func(activity.Evaluation) bool) error {
	now := o.now()
	members, err := o.deps.Members.ScanActive(ctx)
	if err != nil {
		return fmt.Errorf("list active members: %w", err)
	}

	sent := 0
	for i := range members {
		m := &members[i]
		if len(m.DeviceTokens) == 0 {
			continue
		}
		events, err := o.deps.Progress.ListByMember(ctx, m.MemberID)
		if err != nil {
			log.Printf("%s: list progress for %s: %v", taskKind, m.MemberID, err)
			continue
		}
		ev := activity.Evaluate(events, now)
		if !eligible(ev) {
			continue
		}

		body := notifier.ReminderBody(m.Category, ev.LastActivityAt, now)
		data := map[string]string{
			"type":      taskKind,
			"member_id": m.MemberID,
			"timestamp": now.UTC().Format(time.RFC3339),
		}
		if _, err := o.deps.Dispatcher.Send(ctx, m.DeviceTokens, title, body, data); err != nil {
			log.Printf("%s: send to %s: %v", taskKind, m.MemberID, err)
			continue
		}
		sent++
	}

	log.Printf("%s sent: %d of %d members", taskKind, sent, len(members))
	if err := o.deps.Logs.Put(ctx, &domain.NotificationLog{
		LogID:        id.New(),
		TaskKind:     taskKind,
		OccurredAt:   now.UTC(),
		Sent:         sent,
		TotalMembers: len(members),
	}); err != nil {
		return fmt.Errorf("append notification log: %w", err)
	}
	return nil
}

// RunActivityVerification recomputes every member's activity tier and
// persists it only when it changed, to keep store writes to a minimum.
func (o *Orchestrator) RunActivityVerification(ctx context.Context) error {
	return runExclusive("activity_verification", &o.verificationLock, func() error {
		now := o.now()
		members, err := o.deps.Members.Scan(ctx)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		updated := 0
		for i := range members {
			m := &members[i]
			events, err := o.deps.Progress.ListByMember(ctx, m.MemberID)
			if err != nil {
				log.Printf("verification: list progress for %s: %v", m.MemberID, err)
				continue
			}
			ev := activity.Evaluate(events, now)
			if m.ActivityState == ev.Tier {
				continue
			}
			err = o.deps.Members.Update(ctx, m.MemberID, map[string]interface{}{
				"activity_state":   ev.Tier,
				"last_verified_at": now.UTC(),
			})
			if err != nil {
				log.Printf("verification: update member %s: %v", m.MemberID, err)
				continue
			}
			updated++
		}

		log.Printf("activity verification done: %d members updated", updated)
		return nil
	})
}

// RunGroupAlertSweep collects the members whose most recent progress event is
// older than 48h (or who have none) and hands them to the alert manager.
func (o *Orchestrator) RunGroupAlertSweep(ctx context.Context) error {
	return runExclusive("group_alert_sweep", &o.sweepLock, func() error {
		now := o.now()
		members, err := o.deps.Members.Scan(ctx)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		var affected []domain.AffectedMember
		for i := range members {
			m := &members[i]
			events, err := o.deps.Progress.ListByMember(ctx, m.MemberID)
			if err != nil {
				log.Printf("alert sweep: list progress for %s: %v", m.MemberID, err)
				continue
			}
			ev := activity.Evaluate(events, now)
			if ev.Tier != domain.TierCritical {
				continue
			}
			category := m.Category
			if category == "" {
				category = domain.CategoryLatino
			}
			affected = append(affected, domain.AffectedMember{
				MemberID:       m.MemberID,
				FirstName:      m.FirstName,
				LastName:       m.LastName,
				Category:       category,
				LastActivityAt: ev.LastActivityAt,
				DaysInactive:   ev.DaysInactive,
			})
		}

		if len(affected) == 0 {
			log.Println("alert sweep: no inactive members")
			return nil
		}
		_, err = o.deps.Alerts.RaiseGroupAlertIfNeeded(ctx, affected, now)
		return err
	})
}

// RunRetentionCleanup purges alerts and notification logs past the horizon.
func (o *Orchestrator) RunRetentionCleanup(ctx context.Context) error {
	return runExclusive("retention_cleanup", &o.cleanupLock, func() error {
		res, err := o.deps.Cleaner.Purge(ctx, o.cfg.Retention, o.now())
		log.Printf("retention cleanup: %d alerts and %d logs deleted", res.AlertsDeleted, res.LogsDeleted)
		return err
	})
}

// RecentLogs returns the notification logs from the last 24h, newest first,
// capped at 50 entries. Sorting happens here because the store does not
// guarantee query-time ordering.
func (o *Orchestrator) RecentLogs(ctx context.Context) ([]domain.NotificationLog, error) {
	logs, err := o.deps.Logs.ScanSince(ctx, o.now().Add(-recentLogsWindow))
	if err != nil {
		return nil, err
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].OccurredAt.After(logs[j].OccurredAt)
	})
	if len(logs) > recentLogsLimit {
		logs = logs[:recentLogsLimit]
	}
	return logs, nil
}
