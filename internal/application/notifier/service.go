package notifier

import (
	"context"
	"fmt"

	"github.com/team-progress-api/internal/domain"
	snsinfra "github.com/team-progress-api/internal/infrastructure/sns"
)

// DispatchResult summarizes one push dispatch.
type DispatchResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Service dispatches push notifications to member device tokens.
type Service interface {
	// Send pushes to the given token batch. Callers must have filtered out
	// members without tokens; an empty batch returns domain.ErrNoRecipients
	// without touching the transport.
	Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (*DispatchResult, error)
}

type service struct {
	push snsinfra.PushSender
}

func NewService(push snsinfra.PushSender) Service {
	return &service{push: push}
}

func (s *service) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) (*DispatchResult, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("member has no device tokens: %w", domain.ErrNoRecipients)
	}

	res, err := s.push.SendMulticast(ctx, tokens, title, body, data)
	if err != nil {
		return nil, fmt.Errorf("push multicast: %v: %w", err, domain.ErrTransport)
	}

	out := &DispatchResult{Sent: res.SuccessCount, Failed: res.FailureCount}
	if out.Sent == 0 && out.Failed > 0 {
		// Every token in the batch failed. Surface it so the caller decides
		// whether to log-and-continue or fail the request.
		return out, fmt.Errorf("all %d tokens failed: %w", out.Failed, domain.ErrTransport)
	}
	return out, nil
}
