package models

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FlowModel is the persistence model for the approval Flow aggregate.
// Steps live in their own table so routing queries can join on them.
type FlowModel struct {
	CompanyAggregateModel
	Name      string          `gorm:"type:varchar(200);not null"`
	IsDefault bool            `gorm:"not null;default:false;index"`
	Steps     []FlowStepModel `gorm:"foreignKey:FlowID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (FlowModel) TableName() string {
	return "approval_flows"
}

// FlowStepModel is one ordered approver position of a flow
type FlowStepModel struct {
	FlowID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	StepNumber int       `gorm:"primaryKey"`
	ApproverID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (FlowStepModel) TableName() string {
	return "approval_flow_steps"
}

// ToDomain converts the persistence model to a domain Flow
func (m *FlowModel) ToDomain() *approval.Flow {
	steps := make([]approval.Step, len(m.Steps))
	for i, s := range m.Steps {
		steps[i] = approval.Step{StepNumber: s.StepNumber, ApproverID: s.ApproverID}
	}
	flow := &approval.Flow{
		Name:      m.Name,
		IsDefault: m.IsDefault,
		Steps:     steps,
	}
	m.PopulateCompanyAggregateRoot(&flow.CompanyAggregateRoot)
	return flow
}

// FlowModelFromDomain creates a persistence model from a domain Flow
func FlowModelFromDomain(f *approval.Flow) *FlowModel {
	steps := make([]FlowStepModel, len(f.Steps))
	for i, s := range f.Steps {
		steps[i] = FlowStepModel{FlowID: f.ID, StepNumber: s.StepNumber, ApproverID: s.ApproverID}
	}
	m := &FlowModel{
		Name:      f.Name,
		IsDefault: f.IsDefault,
		Steps:     steps,
	}
	m.FromDomainCompanyAggregateRoot(f.CompanyAggregateRoot)
	return m
}

// RuleModel is the persistence model for the approval Rule aggregate
type RuleModel struct {
	CompanyAggregateModel
	FlowID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	RuleType            string           `gorm:"type:varchar(20);not null"`
	PercentageThreshold *decimal.Decimal `gorm:"type:decimal(5,2)"`
	SpecificApproverID  *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (RuleModel) TableName() string {
	return "approval_rules"
}

// ToDomain converts the persistence model to a domain Rule
func (m *RuleModel) ToDomain() *approval.Rule {
	rule := &approval.Rule{
		FlowID:              m.FlowID,
		RuleType:            approval.RuleType(m.RuleType),
		PercentageThreshold: m.PercentageThreshold,
		SpecificApproverID:  m.SpecificApproverID,
	}
	m.PopulateCompanyAggregateRoot(&rule.CompanyAggregateRoot)
	return rule
}

// RuleModelFromDomain creates a persistence model from a domain Rule
func RuleModelFromDomain(r *approval.Rule) *RuleModel {
	m := &RuleModel{
		FlowID:              r.FlowID,
		RuleType:            string(r.RuleType),
		PercentageThreshold: r.PercentageThreshold,
		SpecificApproverID:  r.SpecificApproverID,
	}
	m.FromDomainCompanyAggregateRoot(r.CompanyAggregateRoot)
	return m
}

// DecisionModel is the persistence model for approval decisions.
// Rows are append-only.
type DecisionModel struct {
	BaseModel
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	ExpenseID  uuid.UUID `gorm:"type:uuid;not null;index"`
	StepNumber int       `gorm:"not null"`
	ApproverID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status     string    `gorm:"type:varchar(20);not null"`
	Comment    string    `gorm:"type:varchar(500)"`
	ActedAt    time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (DecisionModel) TableName() string {
	return "approval_decisions"
}

// ToDomain converts the persistence model to a domain Decision
func (m *DecisionModel) ToDomain() *approval.Decision {
	return &approval.Decision{
		BaseEntity: m.BaseModel.ToDomain(),
		CompanyID:  m.CompanyID,
		ExpenseID:  m.ExpenseID,
		StepNumber: m.StepNumber,
		ApproverID: m.ApproverID,
		Status:     approval.DecisionStatus(m.Status),
		Comment:    m.Comment,
		ActedAt:    m.ActedAt,
	}
}

// DecisionModelFromDomain creates a persistence model from a domain Decision
func DecisionModelFromDomain(d *approval.Decision) *DecisionModel {
	m := &DecisionModel{
		CompanyID:  d.CompanyID,
		ExpenseID:  d.ExpenseID,
		StepNumber: d.StepNumber,
		ApproverID: d.ApproverID,
		Status:     string(d.Status),
		Comment:    d.Comment,
		ActedAt:    d.ActedAt,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}
