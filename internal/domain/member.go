package domain

import "time"

// ActivityTier classifies how recently a member reported progress.
type ActivityTier string

const (
	TierUpToDate ActivityTier = "al_dia"
	TierWarning  ActivityTier = "alerta_amarilla"
	TierCritical ActivityTier = "alerta_roja"
)

// Communication categories select the message pool used for a member's
// push notifications. CategoryLatino is the fallback for unset or unknown values.
const (
	CategoryLatino         = "latino"
	CategoryNorteamericano = "norteamericano"
	CategoryEuropeo        = "europeo"
	CategoryAsiatico       = "asiatico"
	CategoryAfricano       = "africano"
)

type Member struct {
	MemberID       string       `json:"id" dynamodbav:"member_id"`
	FirstName      string       `json:"first_name" dynamodbav:"first_name"`
	LastName       string       `json:"last_name" dynamodbav:"last_name"`
	Email          string       `json:"email" dynamodbav:"email"`
	PasswordHash   string       `json:"-" dynamodbav:"password_hash"`
	DeviceTokens   []string     `json:"device_tokens" dynamodbav:"device_tokens"`
	Category       string       `json:"category" dynamodbav:"category"`
	WorkSchedule   string       `json:"work_schedule,omitempty" dynamodbav:"work_schedule"`
	ResponseTime   string       `json:"response_time,omitempty" dynamodbav:"response_time"`
	SymbolKeys     []string     `json:"symbol_keys,omitempty" dynamodbav:"symbol_keys"`
	Active         bool         `json:"active" dynamodbav:"active"`
	ActivityState  ActivityTier `json:"activity_state" dynamodbav:"activity_state"`
	LastActivityAt *time.Time   `json:"last_activity_at,omitempty" dynamodbav:"last_activity_at"`
	LastVerifiedAt time.Time    `json:"last_verified_at" dynamodbav:"last_verified_at"`
	CreatedAt      time.Time    `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time    `json:"updated" dynamodbav:"updated_at"`
}

type CreateMemberRequest struct {
	FirstName    string   `json:"first_name" validate:"required,min=2"`
	LastName     string   `json:"last_name" validate:"required,min=2"`
	Email        string   `json:"email" validate:"required,email"`
	Password     string   `json:"password" validate:"required,min=6,max=72"`
	DeviceTokens []string `json:"device_tokens"`
	Category     string   `json:"category" validate:"omitempty,oneof=latino norteamericano europeo asiatico africano"`
	WorkSchedule string   `json:"work_schedule"`
	ResponseTime string   `json:"response_time"`
}

type UpdateMemberRequest struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Category     *string `json:"category" validate:"omitempty,oneof=latino norteamericano europeo asiatico africano"`
	WorkSchedule *string `json:"work_schedule"`
	ResponseTime *string `json:"response_time"`
	Active       *bool   `json:"active"`
}

type UpdateTokensRequest struct {
	DeviceTokens []string `json:"device_tokens" validate:"required"`
}
