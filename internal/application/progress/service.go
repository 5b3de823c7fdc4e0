package progress

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/team-progress-api/internal/application/activity"
	"github.com/team-progress-api/internal/domain"
	"github.com/team-progress-api/internal/pkg/id"
)

// MemberStatus is one row of the team activity report.
type MemberStatus struct {
	MemberID       string              `json:"member_id"`
	FirstName      string              `json:"first_name"`
	LastName       string              `json:"last_name"`
	Tier           domain.ActivityTier `json:"tier"`
	DaysInactive   int                 `json:"days_inactive"`
	LastActivityAt *time.Time          `json:"last_activity_at,omitempty"`
}

// StatusSummary aggregates the report. AvgDaysInactive excludes members who
// never recorded progress, to keep the sentinel out of the average.
type StatusSummary struct {
	Total           int     `json:"total"`
	UpToDate        int     `json:"up_to_date"`
	Warning         int     `json:"warning"`
	Critical        int     `json:"critical"`
	AvgDaysInactive float64 `json:"avg_days_inactive"`
}

type StatusReport struct {
	Members     []MemberStatus `json:"members"`
	Summary     StatusSummary  `json:"summary"`
	GeneratedAt time.Time      `json:"generated_at"`
}

type Service interface {
	Create(ctx context.Context, req domain.CreateProgressRequest) (*domain.ProgressEvent, error)
	List(ctx context.Context) ([]domain.ProgressEvent, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.ProgressEvent, error)
	Get(ctx context.Context, progressID string) (*domain.ProgressEvent, error)
	Update(ctx context.Context, progressID string, req domain.UpdateProgressRequest) (*domain.ProgressEvent, error)
	Delete(ctx context.Context, progressID string) error
	ActivityStatus(ctx context.Context) (*StatusReport, error)
}

type progressStore interface {
	Put(ctx context.Context, p *domain.ProgressEvent) error
	Get(ctx context.Context, progressID string) (*domain.ProgressEvent, error)
	Scan(ctx context.Context) ([]domain.ProgressEvent, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.ProgressEvent, error)
	Update(ctx context.Context, progressID string, updates map[string]interface{}) error
	HardDelete(ctx context.Context, progressID string) error
}

type memberStore interface {
	Get(ctx context.Context, memberID string) (*domain.Member, error)
	Scan(ctx context.Context) ([]domain.Member, error)
	Update(ctx context.Context, memberID string, updates map[string]interface{}) error
}

type service struct {
	repo    progressStore
	members memberStore
	now     func() time.Time
}

func NewService(repo progressStore, members memberStore) Service {
	return &service{repo: repo, members: members, now: time.Now}
}

// Create records a progress event stamped with the current time and resets
// the member's cached activity state to up to date.
func (s *service) Create(ctx context.Context, req domain.CreateProgressRequest) (*domain.ProgressEvent, error) {
	if _, err := s.members.Get(ctx, req.MemberID); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p := &domain.ProgressEvent{
		ProgressID:  id.New(),
		MemberID:    req.MemberID,
		Description: req.Description,
		OccurredAt:  now,
		CreatedAt:   now,
	}
	if err := s.repo.Put(ctx, p); err != nil {
		return nil, err
	}
	err := s.members.Update(ctx, req.MemberID, map[string]interface{}{
		"activity_state":   domain.TierUpToDate,
		"last_activity_at": now,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh member activity state: %w", err)
	}
	return p, nil
}

func (s *service) List(ctx context.Context) ([]domain.ProgressEvent, error) {
	events, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(events)
	return events, nil
}

func (s *service) ListByMember(ctx context.Context, memberID string) ([]domain.ProgressEvent, error) {
	if _, err := s.members.Get(ctx, memberID); err != nil {
		return nil, err
	}
	events, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(events)
	return events, nil
}

func (s *service) Get(ctx context.Context, progressID string) (*domain.ProgressEvent, error) {
	return s.repo.Get(ctx, progressID)
}

func (s *service) Update(ctx context.Context, progressID string, req domain.UpdateProgressRequest) (*domain.ProgressEvent, error) {
	updates := map[string]interface{}{}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		return s.repo.Get(ctx, progressID)
	}
	if _, err := s.repo.Get(ctx, progressID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, progressID, updates); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, progressID)
}

func (s *service) Delete(ctx context.Context, progressID string) error {
	if _, err := s.repo.Get(ctx, progressID); err != nil {
		return err
	}
	return s.repo.HardDelete(ctx, progressID)
}

// ActivityStatus evaluates every member against their full progress history
// and returns the per-member rows plus summary counts.
func (s *service) ActivityStatus(ctx context.Context) (*StatusReport, error) {
	now := s.now()
	members, err := s.members.Scan(ctx)
	if err != nil {
		return nil, err
	}

	report := &StatusReport{
		Members:     make([]MemberStatus, 0, len(members)),
		GeneratedAt: now.UTC(),
	}
	daysSum, daysCount := 0, 0
	for i := range members {
		m := &members[i]
		events, err := s.repo.ListByMember(ctx, m.MemberID)
		if err != nil {
			return nil, fmt.Errorf("list progress for %s: %w", m.MemberID, err)
		}
		ev := activity.Evaluate(events, now)
		report.Members = append(report.Members, MemberStatus{
			MemberID:       m.MemberID,
			FirstName:      m.FirstName,
			LastName:       m.LastName,
			Tier:           ev.Tier,
			DaysInactive:   ev.DaysInactive,
			LastActivityAt: ev.LastActivityAt,
		})
		switch ev.Tier {
		case domain.TierUpToDate:
			report.Summary.UpToDate++
		case domain.TierWarning:
			report.Summary.Warning++
		case domain.TierCritical:
			report.Summary.Critical++
		}
		if ev.LastActivityAt != nil {
			daysSum += ev.DaysInactive
			daysCount++
		}
	}
	report.Summary.Total = len(members)
	if daysCount > 0 {
		report.Summary.AvgDaysInactive = float64(daysSum) / float64(daysCount)
	}
	return report, nil
}

func sortNewestFirst(events []domain.ProgressEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].OccurredAt.After(events[j].OccurredAt)
	})
}
