package domain

import "time"

// Group alert kinds and urgency levels. The wire values are kept in Spanish
// to stay compatible with the mobile clients.
const (
	AlertKindInactivityGroup = "inactividad_grupal"

	UrgencyMedia = "media"
	UrgencyAlta  = "alta"
)

// DaysInactiveNever is the days-inactive value reported for members that
// never recorded a progress event.
const DaysInactiveNever = 999

// AffectedMember is the snapshot of one inactive member embedded in a group alert.
type AffectedMember struct {
	MemberID       string     `json:"id" dynamodbav:"member_id"`
	FirstName      string     `json:"first_name" dynamodbav:"first_name"`
	LastName       string     `json:"last_name" dynamodbav:"last_name"`
	Category       string     `json:"category" dynamodbav:"category"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty" dynamodbav:"last_activity_at"`
	DaysInactive   int        `json:"days_inactive" dynamodbav:"days_inactive"`
}

type GroupAlert struct {
	AlertID         string           `json:"id" dynamodbav:"alert_id"`
	Kind            string           `json:"kind" dynamodbav:"kind"`
	AffectedMembers []AffectedMember `json:"affected_members" dynamodbav:"affected_members"`
	Message         string           `json:"message" dynamodbav:"message"`
	Urgency         string           `json:"urgency" dynamodbav:"urgency"`
	Active          bool             `json:"active" dynamodbav:"active"`
	DeactivatedAt   *time.Time       `json:"deactivated_at,omitempty" dynamodbav:"deactivated_at"`
	DeactivateReason string          `json:"deactivate_reason,omitempty" dynamodbav:"deactivate_reason"`
	CreatedAt       time.Time        `json:"created" dynamodbav:"created_at"`
}

type DeactivateAlertRequest struct {
	Reason string `json:"reason"`
}
