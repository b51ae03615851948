package approval

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DecideInput contains the input for acting on an expense at its
// current routing step
type DecideInput struct {
	CompanyID  uuid.UUID
	ApproverID uuid.UUID
	ExpenseID  uuid.UUID
	Approve    bool
	Comment    string
}

// OverrideInput contains the input for an admin forcing an outcome
type OverrideInput struct {
	CompanyID uuid.UUID
	AdminID   uuid.UUID
	ExpenseID uuid.UUID
	Approve   bool
	Comment   string
}

// DecisionResult reports where the expense ended up after a decision
type DecisionResult struct {
	ExpenseID     uuid.UUID
	ExpenseNumber string
	Status        expense.Status
	CurrentStep   int
	FiredRuleID   *uuid.UUID
	Decision      DecisionInfo
}

// DecisionInfo is the read model of one recorded decision
type DecisionInfo struct {
	ID         uuid.UUID
	ExpenseID  uuid.UUID
	StepNumber int
	ApproverID uuid.UUID
	Status     approval.DecisionStatus
	Comment    string
	ActedAt    time.Time
}

// NewDecisionInfo maps a decision to its read model
func NewDecisionInfo(d *approval.Decision) DecisionInfo {
	return DecisionInfo{
		ID:         d.ID,
		ExpenseID:  d.ExpenseID,
		StepNumber: d.StepNumber,
		ApproverID: d.ApproverID,
		Status:     d.Status,
		Comment:    d.Comment,
		ActedAt:    d.ActedAt,
	}
}

// PendingInput contains the input for an approver's work queue
type PendingInput struct {
	CompanyID  uuid.UUID
	ApproverID uuid.UUID
	Page       int
	PageSize   int
}

// PendingItem is one expense waiting on the approver
type PendingItem struct {
	ExpenseID     uuid.UUID
	ExpenseNumber string
	OwnerID       uuid.UUID
	Category      expense.Category
	Description   string
	ConvertedStr  string
	Status        expense.Status
	CurrentStep   int
	SubmittedAt   *time.Time
}

// PendingResult is a page of the approver's queue
type PendingResult struct {
	Items      []PendingItem
	TotalCount int64
	Page       int
	PageSize   int
}

// StepInput is one approver position when creating or updating a flow
type StepInput struct {
	StepNumber int
	ApproverID uuid.UUID
}

// CreateFlowInput contains the input for creating an approval flow
type CreateFlowInput struct {
	CompanyID uuid.UUID
	CreatedBy uuid.UUID
	Name      string
	Steps     []StepInput
	IsDefault bool
}

// UpdateFlowInput contains the input for updating an approval flow
type UpdateFlowInput struct {
	CompanyID uuid.UUID
	FlowID    uuid.UUID
	Name      string
	Steps     []StepInput
}

// FlowInfo is the read model of an approval flow
type FlowInfo struct {
	ID        uuid.UUID
	Name      string
	IsDefault bool
	Steps     []approval.Step
	CreatedAt time.Time
}

// NewFlowInfo maps a flow to its read model
func NewFlowInfo(f *approval.Flow) FlowInfo {
	return FlowInfo{
		ID:        f.ID,
		Name:      f.Name,
		IsDefault: f.IsDefault,
		Steps:     f.Steps,
		CreatedAt: f.CreatedAt,
	}
}

// CreateRuleInput contains the input for creating an approval rule
type CreateRuleInput struct {
	CompanyID           uuid.UUID
	CreatedBy           uuid.UUID
	FlowID              uuid.UUID
	RuleType            approval.RuleType
	PercentageThreshold *decimal.Decimal
	SpecificApproverID  *uuid.UUID
}

// UpdateRuleInput contains the input for updating an approval rule
type UpdateRuleInput struct {
	CompanyID           uuid.UUID
	RuleID              uuid.UUID
	RuleType            approval.RuleType
	PercentageThreshold *decimal.Decimal
	SpecificApproverID  *uuid.UUID
}

// RuleInfo is the read model of an approval rule
type RuleInfo struct {
	ID                  uuid.UUID
	FlowID              uuid.UUID
	RuleType            approval.RuleType
	PercentageThreshold *decimal.Decimal
	SpecificApproverID  *uuid.UUID
	CreatedAt           time.Time
}

// NewRuleInfo maps a rule to its read model
func NewRuleInfo(r *approval.Rule) RuleInfo {
	return RuleInfo{
		ID:                  r.ID,
		FlowID:              r.FlowID,
		RuleType:            r.RuleType,
		PercentageThreshold: r.PercentageThreshold,
		SpecificApproverID:  r.SpecificApproverID,
		CreatedAt:           r.CreatedAt,
	}
}
