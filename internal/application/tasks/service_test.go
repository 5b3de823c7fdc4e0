package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/team-progress-api/internal/application/notifier"
	"github.com/team-progress-api/internal/application/retention"
	"github.com/team-progress-api/internal/domain"
)

// --- mocks ---

type mockMemberStore struct{ mock.Mock }

func (m *mockMemberStore) Scan(ctx context.Context) ([]domain.Member, error) {
	args := m.Called(ctx)
	members, _ := args.Get(0).([]domain.Member)
	return members, args.Error(1)
}
func (m *mockMemberStore) ScanActive(ctx context.Context) ([]domain.Member, error) {
	args := m.Called(ctx)
	members, _ := args.Get(0).([]domain.Member)
	return members, args.Error(1)
}
func (m *mockMemberStore) Update(ctx context.Context, memberID string, updates map[string]interface{}) error {
	return m.Called(ctx, memberID, updates).Error(0)
}

type mockProgressStore struct{ mock.Mock }

func (m *mockProgressStore) ListByMember(ctx context.Context, memberID string) ([]domain.ProgressEvent, error) {
	args := m.Called(ctx, memberID)
	events, _ := args.Get(0).([]domain.ProgressEvent)
	return events, args.Error(1)
}

type mockLogStore struct{ mock.Mock }

func (m *mockLogStore) Put(ctx context.Context, l *domain.NotificationLog) error {
	return m.Called(ctx, l).Error(0)
}
func (m *mockLogStore) ScanSince(ctx context.Context, since time.Time) ([]domain.NotificationLog, error) {
	args := m.Called(ctx, since)
	logs, _ := args.Get(0).([]domain.NotificationLog)
	return logs, args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (*notifier.DispatchResult, error) {
	args := m.Called(ctx, tokens, title, body, data)
	if r, _ := args.Get(0).(*notifier.DispatchResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAlertManager struct{ mock.Mock }

func (m *mockAlertManager) RaiseGroupAlertIfNeeded(ctx context.Context, affected []domain.AffectedMember, now time.Time) (*domain.GroupAlert, error) {
	args := m.Called(ctx, affected, now)
	if a, _ := args.Get(0).(*domain.GroupAlert); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAlertManager) Deactivate(ctx context.Context, alertID, reason string) error {
	return m.Called(ctx, alertID, reason).Error(0)
}
func (m *mockAlertManager) ListActive(ctx context.Context) ([]domain.GroupAlert, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]domain.GroupAlert)
	return alerts, args.Error(1)
}

type mockCleaner struct{ mock.Mock }

func (m *mockCleaner) Purge(ctx context.Context, olderThan time.Duration, now time.Time) (retention.Result, error) {
	args := m.Called(ctx, olderThan, now)
	res, _ := args.Get(0).(retention.Result)
	return res, args.Error(1)
}

// --- helpers ---

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newOrchestrator(members *mockMemberStore, progress *mockProgressStore, logs *mockLogStore, d *mockDispatcher, a *mockAlertManager, c *mockCleaner) *Orchestrator {
	o := NewOrchestrator(Deps{
		Members:    members,
		Progress:   progress,
		Logs:       logs,
		Dispatcher: d,
		Alerts:     a,
		Cleaner:    c,
	}, Config{Retention: 7 * 24 * time.Hour})
	o.now = func() time.Time { return now }
	return o
}

func member(memberID string, tokens []string, state domain.ActivityTier) domain.Member {
	return domain.Member{
		MemberID:      memberID,
		FirstName:     "Test",
		LastName:      "Member",
		DeviceTokens:  tokens,
		Category:      domain.CategoryLatino,
		Active:        true,
		ActivityState: state,
	}
}

func events(occurredAt ...time.Time) []domain.ProgressEvent {
	out := make([]domain.ProgressEvent, len(occurredAt))
	for i, t := range occurredAt {
		out[i] = domain.ProgressEvent{ProgressID: "p", MemberID: "m", OccurredAt: t}
	}
	return out
}

// --- RunDailyReminders tests ---

func TestDailyReminders_SkipsTokenlessAndUpToDateMembers(t *testing.T) {
	members := &mockMemberStore{}
	members.On("ScanActive", mock.Anything).Return([]domain.Member{
		member("no-tokens", nil, domain.TierCritical),
		member("inactive", []string{"t1"}, domain.TierWarning),
		member("fresh", []string{"t2"}, domain.TierUpToDate),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "inactive").Return(events(now.Add(-30*time.Hour)), nil)
	progress.On("ListByMember", mock.Anything, "fresh").Return(events(now.Add(-2*time.Hour)), nil)

	dispatcher := &mockDispatcher{}
	dispatcher.On("Send", mock.Anything, []string{"t1"}, notifier.TitleDailyReminder, mock.Anything, mock.Anything).
		Return(&notifier.DispatchResult{Sent: 1}, nil)

	logs := &mockLogStore{}
	logs.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.NotificationLog) bool {
		return l.TaskKind == domain.TaskDailyReminders && l.Sent == 1 && l.TotalMembers == 3
	})).Return(nil)

	o := newOrchestrator(members, progress, logs, dispatcher, &mockAlertManager{}, &mockCleaner{})
	err := o.RunDailyReminders(context.Background())

	require.NoError(t, err)
	// The token-less member never reaches the progress store or the dispatcher.
	progress.AssertNotCalled(t, "ListByMember", mock.Anything, "no-tokens")
	dispatcher.AssertNumberOfCalls(t, "Send", 1)
	logs.AssertExpectations(t)
}

func TestDailyReminders_MemberWithoutEvents_GetsReminder(t *testing.T) {
	members := &mockMemberStore{}
	members.On("ScanActive", mock.Anything).Return([]domain.Member{
		member("never", []string{"t1"}, domain.TierCritical),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "never").Return([]domain.ProgressEvent{}, nil)

	dispatcher := &mockDispatcher{}
	dispatcher.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.MatchedBy(func(body string) bool {
		// No last activity, so no days-inactive clause is appended.
		return !strings.Contains(body, "sin registrar avances")
	}), mock.Anything).Return(&notifier.DispatchResult{Sent: 1}, nil)

	logs := &mockLogStore{}
	logs.On("Put", mock.Anything, mock.Anything).Return(nil)

	o := newOrchestrator(members, progress, logs, dispatcher, &mockAlertManager{}, &mockCleaner{})
	require.NoError(t, o.RunDailyReminders(context.Background()))
	dispatcher.AssertExpectations(t)
}

func TestDailyReminders_DispatchFailure_ContinuesWithOtherMembers(t *testing.T) {
	members := &mockMemberStore{}
	members.On("ScanActive", mock.Anything).Return([]domain.Member{
		member("m1", []string{"t1"}, domain.TierCritical),
		member("m2", []string{"t2"}, domain.TierCritical),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, mock.Anything).Return([]domain.ProgressEvent{}, nil)

	dispatcher := &mockDispatcher{}
	dispatcher.On("Send", mock.Anything, []string{"t1"}, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("transport down"))
	dispatcher.On("Send", mock.Anything, []string{"t2"}, mock.Anything, mock.Anything, mock.Anything).
		Return(&notifier.DispatchResult{Sent: 1}, nil)

	logs := &mockLogStore{}
	logs.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.NotificationLog) bool {
		return l.Sent == 1 && l.TotalMembers == 2
	})).Return(nil)

	o := newOrchestrator(members, progress, logs, dispatcher, &mockAlertManager{}, &mockCleaner{})
	require.NoError(t, o.RunDailyReminders(context.Background()))
	logs.AssertExpectations(t)
}

func TestDailyReminders_MemberListingFails_AbortsRun(t *testing.T) {
	members := &mockMemberStore{}
	members.On("ScanActive", mock.Anything).Return(nil, errors.New("store down"))

	logs := &mockLogStore{}
	o := newOrchestrator(members, &mockProgressStore{}, logs, &mockDispatcher{}, &mockAlertManager{}, &mockCleaner{})
	err := o.RunDailyReminders(context.Background())

	require.Error(t, err)
	logs.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// --- RunInactiveReminders tests ---

func TestInactiveReminders_OnlyCriticalMembersNudged(t *testing.T) {
	members := &mockMemberStore{}
	members.On("ScanActive", mock.Anything).Return([]domain.Member{
		member("silent", []string{"t1"}, domain.TierCritical),
		member("warned", []string{"t2"}, domain.TierWarning),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "silent").Return([]domain.ProgressEvent{}, nil)
	progress.On("ListByMember", mock.Anything, "warned").Return(events(now.Add(-30*time.Hour)), nil)

	dispatcher := &mockDispatcher{}
	dispatcher.On("Send", mock.Anything, []string{"t1"}, notifier.TitleInactivityReminder, mock.Anything, mock.Anything).
		Return(&notifier.DispatchResult{Sent: 1}, nil)

	logs := &mockLogStore{}
	logs.On("Put", mock.Anything, mock.MatchedBy(func(l *domain.NotificationLog) bool {
		return l.TaskKind == domain.TaskInactiveReminders && l.Sent == 1 && l.TotalMembers == 2
	})).Return(nil)

	o := newOrchestrator(members, progress, logs, dispatcher, &mockAlertManager{}, &mockCleaner{})
	require.NoError(t, o.RunInactiveReminders(context.Background()))

	// The member inside the 48h line gets no nudge from this pass.
	dispatcher.AssertNumberOfCalls(t, "Send", 1)
	logs.AssertExpectations(t)
}

// --- RunActivityVerification tests ---

func TestVerification_WritesOnlyOnTierChange(t *testing.T) {
	members := &mockMemberStore{}
	members.On("Scan", mock.Anything).Return([]domain.Member{
		member("stale", nil, domain.TierUpToDate),  // no events, now critical
		member("steady", nil, domain.TierUpToDate), // recent event, unchanged
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "stale").Return([]domain.ProgressEvent{}, nil)
	progress.On("ListByMember", mock.Anything, "steady").Return(events(now.Add(-time.Hour)), nil)

	members.On("Update", mock.Anything, "stale", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["activity_state"] == domain.TierCritical
	})).Return(nil)

	o := newOrchestrator(members, progress, &mockLogStore{}, &mockDispatcher{}, &mockAlertManager{}, &mockCleaner{})
	require.NoError(t, o.RunActivityVerification(context.Background()))

	members.AssertNumberOfCalls(t, "Update", 1)
}

// A member with no tokens is skipped by reminders but still verified.
func TestVerification_TokenlessMemberStillMarkedCritical(t *testing.T) {
	members := &mockMemberStore{}
	members.On("Scan", mock.Anything).Return([]domain.Member{
		member("quiet", nil, domain.TierUpToDate),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "quiet").Return([]domain.ProgressEvent{}, nil)

	members.On("Update", mock.Anything, "quiet", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["activity_state"] == domain.TierCritical
	})).Return(nil)

	o := newOrchestrator(members, progress, &mockLogStore{}, &mockDispatcher{}, &mockAlertManager{}, &mockCleaner{})
	require.NoError(t, o.RunActivityVerification(context.Background()))
	members.AssertExpectations(t)
}

// --- RunGroupAlertSweep tests ---

func TestSweep_OnlyCriticalMembersAffected(t *testing.T) {
	members := &mockMemberStore{}
	members.On("Scan", mock.Anything).Return([]domain.Member{
		member("silent", nil, domain.TierCritical),
		member("warned", nil, domain.TierWarning),
		member("fresh", nil, domain.TierUpToDate),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "silent").Return([]domain.ProgressEvent{}, nil)
	progress.On("ListByMember", mock.Anything, "warned").Return(events(now.Add(-30*time.Hour)), nil)
	progress.On("ListByMember", mock.Anything, "fresh").Return(events(now.Add(-time.Hour)), nil)

	alerts := &mockAlertManager{}
	alerts.On("RaiseGroupAlertIfNeeded", mock.Anything, mock.MatchedBy(func(a []domain.AffectedMember) bool {
		return len(a) == 1 && a[0].MemberID == "silent" && a[0].DaysInactive == domain.DaysInactiveNever
	}), now).Return(nil, nil)

	o := newOrchestrator(members, progress, &mockLogStore{}, &mockDispatcher{}, alerts, &mockCleaner{})
	require.NoError(t, o.RunGroupAlertSweep(context.Background()))
	alerts.AssertExpectations(t)
}

func TestSweep_NoInactiveMembers_NoAlertCall(t *testing.T) {
	members := &mockMemberStore{}
	members.On("Scan", mock.Anything).Return([]domain.Member{
		member("fresh", nil, domain.TierUpToDate),
	}, nil)

	progress := &mockProgressStore{}
	progress.On("ListByMember", mock.Anything, "fresh").Return(events(now.Add(-time.Hour)), nil)

	alerts := &mockAlertManager{}
	o := newOrchestrator(members, progress, &mockLogStore{}, &mockDispatcher{}, alerts, &mockCleaner{})
	require.NoError(t, o.RunGroupAlertSweep(context.Background()))

	alerts.AssertNotCalled(t, "RaiseGroupAlertIfNeeded", mock.Anything, mock.Anything, mock.Anything)
}

// --- RunRetentionCleanup tests ---

func TestCleanup_PurgesWithConfiguredHorizon(t *testing.T) {
	cleaner := &mockCleaner{}
	cleaner.On("Purge", mock.Anything, 7*24*time.Hour, now).
		Return(retention.Result{AlertsDeleted: 3, LogsDeleted: 2}, nil)

	o := newOrchestrator(&mockMemberStore{}, &mockProgressStore{}, &mockLogStore{}, &mockDispatcher{}, &mockAlertManager{}, cleaner)
	require.NoError(t, o.RunRetentionCleanup(context.Background()))
	cleaner.AssertExpectations(t)
}

// --- run-lock tests ---

func TestRunLock_OverlappingFiringSkipped(t *testing.T) {
	members := &mockMemberStore{}
	o := newOrchestrator(members, &mockProgressStore{}, &mockLogStore{}, &mockDispatcher{}, &mockAlertManager{}, &mockCleaner{})

	// Simulate an in-flight run by holding the task's lock.
	o.remindersLock.Lock()
	defer o.remindersLock.Unlock()

	err := o.RunDailyReminders(context.Background())

	require.NoError(t, err)
	members.AssertNotCalled(t, "ScanActive", mock.Anything)
}

// --- RecentLogs tests ---

func TestRecentLogs_SortedNewestFirstAndCapped(t *testing.T) {
	entries := make([]domain.NotificationLog, 60)
	for i := range entries {
		entries[i] = domain.NotificationLog{
			LogID:      string(rune('a' + i%26)),
			OccurredAt: now.Add(-time.Duration(i) * time.Minute),
		}
	}
	// Shuffle the order the store hands back.
	entries[0], entries[59] = entries[59], entries[0]

	logs := &mockLogStore{}
	logs.On("ScanSince", mock.Anything, now.Add(-24*time.Hour)).Return(entries, nil)

	o := newOrchestrator(&mockMemberStore{}, &mockProgressStore{}, logs, &mockDispatcher{}, &mockAlertManager{}, &mockCleaner{})
	out, err := o.RecentLogs(context.Background())

	require.NoError(t, err)
	assert.Len(t, out, 50)
	for i := 1; i < len(out); i++ {
		assert.False(t, out[i].OccurredAt.After(out[i-1].OccurredAt))
	}
}
