package alerting

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/team-progress-api/internal/domain"
	"github.com/team-progress-api/internal/pkg/id"
)

// DedupWindow is the span during which a new group alert of the same kind is
// suppressed because an active one already exists. It matches the sweep cadence.
const DedupWindow = 6 * time.Hour

// DefaultDeactivateReason is recorded when an operator gives no reason.
const DefaultDeactivateReason = "Sin motivo especificado"

type alertStore interface {
	Put(ctx context.Context, a *domain.GroupAlert) error
	Get(ctx context.Context, alertID string) (*domain.GroupAlert, error)
	ListActiveSince(ctx context.Context, kind string, since time.Time) ([]domain.GroupAlert, error)
	ScanActive(ctx context.Context) ([]domain.GroupAlert, error)
	Update(ctx context.Context, alertID string, updates map[string]interface{}) error
}

// Service decides whether a group alert needs to be raised and manages the
// lifecycle of existing alerts.
type Service interface {
	// RaiseGroupAlertIfNeeded creates an inactivity group alert for the given
	// affected members unless an active one already exists inside the dedup
	// window. Returns nil without a store write when affected is empty or the
	// alert was suppressed.
	RaiseGroupAlertIfNeeded(ctx context.Context, affected []domain.AffectedMember, now time.Time) (*domain.GroupAlert, error)
	Deactivate(ctx context.Context, alertID, reason string) error
	ListActive(ctx context.Context) ([]domain.GroupAlert, error)
}

type service struct {
	repo alertStore

	// mu serializes the check-then-create sequence; the store has no
	// conditional-write primitive for "one active alert per kind".
	mu sync.Mutex
}

func NewService(repo alertStore) Service {
	return &service{repo: repo}
}

func (s *service) RaiseGroupAlertIfNeeded(ctx context.Context, affected []domain.AffectedMember, now time.Time) (*domain.GroupAlert, error) {
	if len(affected) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recent, err := s.repo.ListActiveSince(ctx, domain.AlertKindInactivityGroup, now.Add(-DedupWindow))
	if err != nil {
		return nil, fmt.Errorf("list recent alerts: %w", err)
	}
	if len(recent) > 0 {
		log.Printf("group alert already active (id=%s), not creating a duplicate", recent[0].AlertID)
		return nil, nil
	}

	urgency := domain.UrgencyMedia
	if len(affected) > 2 {
		urgency = domain.UrgencyAlta
	}
	alert := &domain.GroupAlert{
		AlertID:         id.New(),
		Kind:            domain.AlertKindInactivityGroup,
		AffectedMembers: affected,
		Message:         fmt.Sprintf("%d miembro(s) del equipo necesita(n) apoyo", len(affected)),
		Urgency:         urgency,
		Active:          true,
		CreatedAt:       now.UTC(),
	}
	if err := s.repo.Put(ctx, alert); err != nil {
		return nil, fmt.Errorf("create group alert: %w", err)
	}
	log.Printf("group alert created: %d inactive members (urgency=%s)", len(affected), urgency)
	return alert, nil
}

// Deactivate flips the alert to inactive, recording when and why. It is not
// guarded against concurrent deactivation; last writer wins.
func (s *service) Deactivate(ctx context.Context, alertID, reason string) error {
	if _, err := s.repo.Get(ctx, alertID); err != nil {
		return err
	}
	if reason == "" {
		reason = DefaultDeactivateReason
	}
	return s.repo.Update(ctx, alertID, map[string]interface{}{
		"active":            false,
		"deactivated_at":    time.Now().UTC(),
		"deactivate_reason": reason,
	})
}

func (s *service) ListActive(ctx context.Context) ([]domain.GroupAlert, error) {
	return s.repo.ScanActive(ctx)
}
