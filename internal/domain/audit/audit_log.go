package audit

import (
	"encoding/json"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
)

// Action classifies what happened to the audited aggregate
type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionSubmitted     Action = "SUBMITTED"
	ActionApproved      Action = "APPROVED"
	ActionRejected      Action = "REJECTED"
	ActionEscalated     Action = "ESCALATED"
	ActionPaid          Action = "PAID"
	ActionCancelled     Action = "CANCELLED"
	ActionStatusChanged Action = "STATUS_CHANGED"
	ActionLoggedIn      Action = "LOGGED_IN"
)

// IsValid checks if the action is a known audit action
func (a Action) IsValid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionSubmitted, ActionApproved,
		ActionRejected, ActionEscalated, ActionPaid, ActionCancelled,
		ActionStatusChanged, ActionLoggedIn:
		return true
	default:
		return false
	}
}

// Log is an immutable record of something that happened to an
// aggregate: who did what, to which entity, when, and any extra
// details the event carried. Entries are append-only.
type Log struct {
	shared.BaseEntity
	CompanyID     uuid.UUID      `json:"company_id" gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID     `json:"actor_id,omitempty" gorm:"type:uuid"`
	Action        Action         `json:"action" gorm:"type:varchar(32);not null"`
	AggregateType string         `json:"aggregate_type" gorm:"type:varchar(64);not null;index"`
	AggregateID   uuid.UUID      `json:"aggregate_id" gorm:"type:uuid;not null;index"`
	Details       map[string]any `json:"details,omitempty" gorm:"serializer:json"`
	OccurredAt    time.Time      `json:"occurred_at" gorm:"not null;index"`
}

// TableName specifies the database table name
func (Log) TableName() string {
	return "audit_logs"
}

// NewLog creates an audit log entry
func NewLog(
	companyID uuid.UUID,
	actorID *uuid.UUID,
	action Action,
	aggregateType string,
	aggregateID uuid.UUID,
	details map[string]any,
	occurredAt time.Time,
) (*Log, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION", "Invalid audit action")
	}
	if aggregateType == "" {
		return nil, shared.NewDomainError("INVALID_AGGREGATE_TYPE", "Aggregate type cannot be empty")
	}
	if aggregateID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_AGGREGATE", "Aggregate ID cannot be empty")
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &Log{
		BaseEntity:    shared.NewBaseEntity(),
		CompanyID:     companyID,
		ActorID:       actorID,
		Action:        action,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Details:       details,
		OccurredAt:    occurredAt,
	}, nil
}

// DetailsJSON renders the details map as a JSON string for transports
// that cannot carry a map directly. An empty map renders as "{}".
func (l *Log) DetailsJSON() (string, error) {
	if len(l.Details) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(l.Details)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
