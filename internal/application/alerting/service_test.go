package alerting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/team-progress-api/internal/domain"
)

// --- mocks ---

type mockAlertStore struct{ mock.Mock }

func (m *mockAlertStore) Put(ctx context.Context, a *domain.GroupAlert) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAlertStore) Get(ctx context.Context, alertID string) (*domain.GroupAlert, error) {
	args := m.Called(ctx, alertID)
	if a, _ := args.Get(0).(*domain.GroupAlert); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAlertStore) ListActiveSince(ctx context.Context, kind string, since time.Time) ([]domain.GroupAlert, error) {
	args := m.Called(ctx, kind, since)
	alerts, _ := args.Get(0).([]domain.GroupAlert)
	return alerts, args.Error(1)
}
func (m *mockAlertStore) ScanActive(ctx context.Context) ([]domain.GroupAlert, error) {
	args := m.Called(ctx)
	alerts, _ := args.Get(0).([]domain.GroupAlert)
	return alerts, args.Error(1)
}
func (m *mockAlertStore) Update(ctx context.Context, alertID string, updates map[string]interface{}) error {
	return m.Called(ctx, alertID, updates).Error(0)
}

// --- helpers ---

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func affected(n int) []domain.AffectedMember {
	members := make([]domain.AffectedMember, n)
	for i := range members {
		members[i] = domain.AffectedMember{
			MemberID:     string(rune('a' + i)),
			FirstName:    "Member",
			Category:     domain.CategoryLatino,
			DaysInactive: domain.DaysInactiveNever,
		}
	}
	return members
}

// --- RaiseGroupAlertIfNeeded tests ---

func TestRaise_EmptyAffected_NoStoreWrite(t *testing.T) {
	repo := &mockAlertStore{}

	svc := NewService(repo)
	alert, err := svc.RaiseGroupAlertIfNeeded(context.Background(), nil, now)

	require.NoError(t, err)
	assert.Nil(t, alert)
	repo.AssertNotCalled(t, "ListActiveSince", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRaise_NoRecentAlert_Creates(t *testing.T) {
	repo := &mockAlertStore{}
	repo.On("ListActiveSince", mock.Anything, domain.AlertKindInactivityGroup, now.Add(-6*time.Hour)).
		Return([]domain.GroupAlert{}, nil)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo)
	alert, err := svc.RaiseGroupAlertIfNeeded(context.Background(), affected(2), now)

	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.True(t, alert.Active)
	assert.Equal(t, domain.UrgencyMedia, alert.Urgency)
	assert.Equal(t, "2 miembro(s) del equipo necesita(n) apoyo", alert.Message)
	assert.Len(t, alert.AffectedMembers, 2)
	repo.AssertExpectations(t)
}

func TestRaise_MoreThanTwoAffected_UrgencyAlta(t *testing.T) {
	repo := &mockAlertStore{}
	repo.On("ListActiveSince", mock.Anything, mock.Anything, mock.Anything).Return([]domain.GroupAlert{}, nil)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(repo)
	alert, err := svc.RaiseGroupAlertIfNeeded(context.Background(), affected(3), now)

	require.NoError(t, err)
	assert.Equal(t, domain.UrgencyAlta, alert.Urgency)
}

func TestRaise_RecentActiveAlert_Suppresses(t *testing.T) {
	repo := &mockAlertStore{}
	repo.On("ListActiveSince", mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.GroupAlert{{AlertID: "existing", Active: true, CreatedAt: now.Add(-time.Hour)}}, nil)

	svc := NewService(repo)
	alert, err := svc.RaiseGroupAlertIfNeeded(context.Background(), affected(4), now)

	require.NoError(t, err)
	assert.Nil(t, alert)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

// Two sweeps an hour apart with the same affected set: the first creates,
// the second is suppressed by the dedup window.
func TestRaise_ConsecutiveSweeps_SecondSuppressed(t *testing.T) {
	repo := &mockAlertStore{}
	repo.On("ListActiveSince", mock.Anything, mock.Anything, now.Add(-6*time.Hour)).
		Return([]domain.GroupAlert{}, nil).Once()
	repo.On("Put", mock.Anything, mock.Anything).Return(nil).Once()

	svc := NewService(repo)
	first, err := svc.RaiseGroupAlertIfNeeded(context.Background(), affected(2), now)
	require.NoError(t, err)
	require.NotNil(t, first)

	later := now.Add(time.Hour)
	repo.On("ListActiveSince", mock.Anything, mock.Anything, later.Add(-6*time.Hour)).
		Return([]domain.GroupAlert{*first}, nil).Once()

	second, err := svc.RaiseGroupAlertIfNeeded(context.Background(), affected(2), later)
	require.NoError(t, err)
	assert.Nil(t, second)
	repo.AssertExpectations(t)
}

// --- Deactivate tests ---

func TestDeactivate_DefaultReason(t *testing.T) {
	repo := &mockAlertStore{}
	repo.On("Get", mock.Anything, "a1").Return(&domain.GroupAlert{AlertID: "a1", Active: true}, nil)
	repo.On("Update", mock.Anything, "a1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["active"] == false && u["deactivate_reason"] == DefaultDeactivateReason
	})).Return(nil)

	svc := NewService(repo)
	err := svc.Deactivate(context.Background(), "a1", "")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeactivate_UnknownAlert_NotFound(t *testing.T) {
	repo := &mockAlertStore{}
	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	svc := NewService(repo)
	err := svc.Deactivate(context.Background(), "missing", "resolved")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
