package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/team-progress-api/internal/domain"
)

// LogRepo provides typed DynamoDB operations for the notification logs table.
type LogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLogRepo(client *dynamodb.Client, tableName string) *LogRepo {
	return &LogRepo{client: client, tableName: tableName}
}

func (r *LogRepo) Put(ctx context.Context, l *domain.NotificationLog) error {
	item, err := attributevalue.MarshalMap(l)
	if err != nil {
		return fmt.Errorf("marshal notification log: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ScanSince returns logs with occurred_at at or after since, across all task kinds.
func (r *LogRepo) ScanSince(ctx context.Context, since time.Time) ([]domain.NotificationLog, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("occurred_at >= :since"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":since": &types.AttributeValueMemberS{Value: since.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return nil, err
	}
	var logs []domain.NotificationLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ScanOlderThan returns logs created strictly before the cutoff, for retention cleanup.
func (r *LogRepo) ScanOlderThan(ctx context.Context, cutoff time.Time) ([]domain.NotificationLog, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("occurred_at < :cutoff"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cutoff": &types.AttributeValueMemberS{Value: cutoff.UTC().Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		return nil, err
	}
	var logs []domain.NotificationLog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *LogRepo) HardDelete(ctx context.Context, logID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("log_id", logID),
	})
	return err
}
