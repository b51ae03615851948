package approval

import (
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
)

// DecisionStatus is the verdict recorded at one routing step
type DecisionStatus string

const (
	DecisionApproved  DecisionStatus = "APPROVED"
	DecisionRejected  DecisionStatus = "REJECTED"
	DecisionEscalated DecisionStatus = "ESCALATED" // Admin override outside the normal chain
	DecisionSkipped   DecisionStatus = "SKIPPED"   // Step bypassed because a rule fired
)

// IsValid returns true if the status is known
func (s DecisionStatus) IsValid() bool {
	switch s {
	case DecisionApproved, DecisionRejected, DecisionEscalated, DecisionSkipped:
		return true
	}
	return false
}

// Decision is the permanent record of one approver acting on an
// expense at one step. Decisions are append-only; the ordered list per
// expense is its approval history.
type Decision struct {
	shared.BaseEntity
	CompanyID  uuid.UUID
	ExpenseID  uuid.UUID
	StepNumber int // 0 = manager pre-approval
	ApproverID uuid.UUID
	Status     DecisionStatus
	Comment    string
	ActedAt    time.Time
}

// NewDecision records a verdict
func NewDecision(companyID, expenseID, approverID uuid.UUID, stepNumber int, status DecisionStatus, comment string) (*Decision, error) {
	if expenseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_EXPENSE", "Decision must reference an expense")
	}
	if approverID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_APPROVER", "Decision must reference an approver")
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_DECISION", "Unknown decision status")
	}
	if stepNumber < 0 {
		return nil, shared.NewDomainError("INVALID_STEP", "Step number cannot be negative")
	}
	if status == DecisionRejected && strings.TrimSpace(comment) == "" {
		return nil, shared.NewDomainError("INVALID_COMMENT", "Rejections need a comment")
	}

	return &Decision{
		BaseEntity: shared.NewBaseEntity(),
		CompanyID:  companyID,
		ExpenseID:  expenseID,
		StepNumber: stepNumber,
		ApproverID: approverID,
		Status:     status,
		Comment:    strings.TrimSpace(comment),
		ActedAt:    time.Now(),
	}, nil
}
