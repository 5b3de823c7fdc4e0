package domain

import "time"

// NotificationLog is an append-only record of one task run's dispatch counts.
type NotificationLog struct {
	LogID        string    `json:"id" dynamodbav:"log_id"`
	TaskKind     string    `json:"task_kind" dynamodbav:"task_kind"`
	OccurredAt   time.Time `json:"occurred_at" dynamodbav:"occurred_at"`
	Sent         int       `json:"sent" dynamodbav:"sent"`
	TotalMembers int       `json:"total_members" dynamodbav:"total_members"`
}

// Task kinds recorded in notification logs.
const (
	TaskDailyReminders    = "recordatorios_diarios"
	TaskInactiveReminders = "recordatorios_inactivos"
)
