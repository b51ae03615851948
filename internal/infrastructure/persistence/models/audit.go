package models

import (
	"encoding/json"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/audit"
	"github.com/google/uuid"
)

// AuditLogModel is the persistence model for audit log entries.
// Details are stored as a JSON blob so entries stay schema-free.
type AuditLogModel struct {
	BaseModel
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorID       *uuid.UUID `gorm:"type:uuid;index"`
	Action        string     `gorm:"type:varchar(32);not null;index"`
	AggregateType string     `gorm:"type:varchar(64);not null;index"`
	AggregateID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Details       string     `gorm:"type:text"`
	OccurredAt    time.Time  `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditLogModel) TableName() string {
	return "audit_logs"
}

// ToDomain converts the persistence model to a domain audit Log
func (m *AuditLogModel) ToDomain() *audit.Log {
	var details map[string]any
	if m.Details != "" {
		// Corrupt details should not make the whole trail unreadable
		_ = json.Unmarshal([]byte(m.Details), &details)
	}
	return &audit.Log{
		BaseEntity:    m.BaseModel.ToDomain(),
		CompanyID:     m.CompanyID,
		ActorID:       m.ActorID,
		Action:        audit.Action(m.Action),
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		Details:       details,
		OccurredAt:    m.OccurredAt,
	}
}

// AuditLogModelFromDomain creates a persistence model from a domain audit Log
func AuditLogModelFromDomain(l *audit.Log) (*AuditLogModel, error) {
	details, err := l.DetailsJSON()
	if err != nil {
		return nil, err
	}
	m := &AuditLogModel{
		CompanyID:     l.CompanyID,
		ActorID:       l.ActorID,
		Action:        string(l.Action),
		AggregateType: l.AggregateType,
		AggregateID:   l.AggregateID,
		Details:       details,
		OccurredAt:    l.OccurredAt,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m, nil
}
