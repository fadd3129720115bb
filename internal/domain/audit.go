package domain

import (
	"time"
)

type AuditAction string

const (
	ActionApprove AuditAction = "approve"
	ActionReject  AuditAction = "reject"
	ActionPending AuditAction = "pending"
	ActionSubmit  AuditAction = "submit"
	ActionUpdate  AuditAction = "update"
	ActionDelete  AuditAction = "delete"
)

const (
	TargetBooking      = "booking"
	TargetVerification = "partner_verification"
)

// AuditLogEntry is a write-once record of an administrative action.
type AuditLogEntry struct {
	ID             string                 `json:"id" bson:"_id"`
	ActorType      ActorKind              `json:"actor_type" bson:"actorType"`
	ActorID        *int64                 `json:"actor_id,omitempty" bson:"actorId,omitempty"`
	AffectedUserID int64                  `json:"affected_user_id" bson:"affectedUserId"`
	Action         AuditAction            `json:"action" bson:"action"`
	TargetType     string                 `json:"target_type" bson:"targetType"`
	TargetID       int64                  `json:"target_id" bson:"targetId"`
	Reason         *string                `json:"reason,omitempty" bson:"reason,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"created_at" bson:"createdAt"`
}

const (
	DefaultAuditPageSize = 50
	MaxAuditPageSize     = 500
)

// AuditLogFilter selects entries by actor or by target, optionally within [From, To].
type AuditLogFilter struct {
	ActorID    *int64
	TargetType string
	TargetID   *int64
	From       *time.Time
	To         *time.Time
	Limit      int
}

func (f *AuditLogFilter) Normalize() error {
	if f.ActorID == nil && f.TargetType == "" {
		return NewValidationError("filter", "actor_id or target_type is required")
	}
	if f.TargetID != nil && f.TargetType == "" {
		return NewValidationError("target_type", "is required when target_id is set")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return NewValidationError("to", "must not be before from")
	}
	switch {
	case f.Limit <= 0:
		f.Limit = DefaultAuditPageSize
	case f.Limit > MaxAuditPageSize:
		f.Limit = MaxAuditPageSize
	}
	return nil
}
