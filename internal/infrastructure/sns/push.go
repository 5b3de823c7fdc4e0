package sns

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/team-progress-api/internal/config"
)

// MulticastResult summarizes per-token outcomes of one push batch.
type MulticastResult struct {
	SuccessCount int
	FailureCount int
}

// PushSender sends a push notification to a batch of device tokens.
// Tokens are SNS platform-endpoint ARNs; the engine treats them as opaque.
type PushSender interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*MulticastResult, error)
}

type sender struct {
	client *sns.Client
}

func NewSender(cfg *config.Config) (PushSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg)}, nil
}

// payload is the platform-agnostic message envelope published to each endpoint.
type payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// SendMulticast publishes the message to every endpoint and counts per-token
// outcomes. A failed token does not stop the batch; the error return is nil
// even when some tokens failed, so callers can inspect the counts.
func (s *sender) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (*MulticastResult, error) {
	msg, err := json.Marshal(payload{Title: title, Body: body, Data: data})
	if err != nil {
		return nil, fmt.Errorf("marshal push payload: %w", err)
	}

	message := string(msg)
	res := &MulticastResult{}
	for _, token := range tokens {
		token := token
		_, err := s.client.Publish(ctx, &sns.PublishInput{
			TargetArn: &token,
			Message:   &message,
		})
		if err != nil {
			res.FailureCount++
			continue
		}
		res.SuccessCount++
	}
	return res, nil
}
