package domain

import "time"

// ProgressEvent is an immutable record that a member reported work.
type ProgressEvent struct {
	ProgressID  string    `json:"id" dynamodbav:"progress_id"`
	MemberID    string    `json:"member_id" dynamodbav:"member_id"`
	Description string    `json:"description" dynamodbav:"description"`
	OccurredAt  time.Time `json:"occurred_at" dynamodbav:"occurred_at"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateProgressRequest struct {
	MemberID    string `json:"member_id" validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
}

type UpdateProgressRequest struct {
	Description *string `json:"description" validate:"omitempty,min=5"`
}
