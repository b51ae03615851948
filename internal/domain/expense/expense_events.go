package expense

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constant for Expense
const AggregateTypeExpense = "Expense"

// Expense domain event types
const (
	EventTypeExpenseCreated   = "ExpenseCreated"
	EventTypeExpenseSubmitted = "ExpenseSubmitted"
	EventTypeExpenseApproved  = "ExpenseApproved"
	EventTypeExpenseRejected  = "ExpenseRejected"
	EventTypeExpensePaid      = "ExpensePaid"
	EventTypeExpenseCancelled = "ExpenseCancelled"
)

// ExpenseCreatedEvent is published when a draft expense is created
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string    `json:"expense_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Category      Category  `json:"category"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
}

// NewExpenseCreatedEvent creates a new ExpenseCreatedEvent
func NewExpenseCreatedEvent(e *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCreated, AggregateTypeExpense, e.ID, e.CompanyID),
		ExpenseNumber:   e.ExpenseNumber,
		OwnerID:         e.OwnerID,
		Category:        e.Category,
		Amount:          e.OriginalAmount.StringFixed(2),
		Currency:        string(e.OriginalAmount.Currency()),
	}
}

// ExpenseSubmittedEvent is published when an expense enters routing
type ExpenseSubmittedEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber   string     `json:"expense_number"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	Category        Category   `json:"category"`
	ConvertedAmount string     `json:"converted_amount"`
	Currency        string     `json:"currency"`
	FlowID          *uuid.UUID `json:"flow_id,omitempty"`
}

// NewExpenseSubmittedEvent creates a new ExpenseSubmittedEvent
func NewExpenseSubmittedEvent(e *Expense) *ExpenseSubmittedEvent {
	return &ExpenseSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseSubmitted, AggregateTypeExpense, e.ID, e.CompanyID),
		ExpenseNumber:   e.ExpenseNumber,
		OwnerID:         e.OwnerID,
		Category:        e.Category,
		ConvertedAmount: e.ConvertedAmount.StringFixed(2),
		Currency:        string(e.ConvertedAmount.Currency()),
		FlowID:          e.FlowID,
	}
}

// ExpenseApprovedEvent is published when routing ends with approval
type ExpenseApprovedEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string     `json:"expense_number"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	ApprovedBy    *uuid.UUID `json:"approved_by"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// NewExpenseApprovedEvent creates a new ExpenseApprovedEvent
func NewExpenseApprovedEvent(e *Expense) *ExpenseApprovedEvent {
	return &ExpenseApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseApproved, AggregateTypeExpense, e.ID, e.CompanyID),
		ExpenseNumber:   e.ExpenseNumber,
		OwnerID:         e.OwnerID,
		ApprovedBy:      e.ApprovedBy,
		SubmittedAt:     e.SubmittedAt,
	}
}

// ExpenseRejectedEvent is published when routing ends with rejection
type ExpenseRejectedEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string     `json:"expense_number"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	RejectedBy    *uuid.UUID `json:"rejected_by"`
	Reason        string     `json:"reason"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// NewExpenseRejectedEvent creates a new ExpenseRejectedEvent
func NewExpenseRejectedEvent(e *Expense) *ExpenseRejectedEvent {
	return &ExpenseRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseRejected, AggregateTypeExpense, e.ID, e.CompanyID),
		ExpenseNumber:   e.ExpenseNumber,
		OwnerID:         e.OwnerID,
		RejectedBy:      e.RejectedBy,
		Reason:          e.RejectionReason,
		SubmittedAt:     e.SubmittedAt,
	}
}

// ExpensePaidEvent is published when an approved expense is reimbursed
type ExpensePaidEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string     `json:"expense_number"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	PaidBy        *uuid.UUID `json:"paid_by"`
}

// NewExpensePaidEvent creates a new ExpensePaidEvent
func NewExpensePaidEvent(e *Expense) *ExpensePaidEvent {
	return &ExpensePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpensePaid, AggregateTypeExpense, e.ID, e.CompanyID),
		ExpenseNumber:   e.ExpenseNumber,
		OwnerID:         e.OwnerID,
		PaidBy:          e.PaidBy,
	}
}

// ExpenseCancelledEvent is published when the owner withdraws an expense
type ExpenseCancelledEvent struct {
	shared.BaseDomainEvent
	ExpenseNumber string    `json:"expense_number"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Reason        string    `json:"reason"`
}

// NewExpenseCancelledEvent creates a new ExpenseCancelledEvent
func NewExpenseCancelledEvent(e *Expense) *ExpenseCancelledEvent {
	return &ExpenseCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCancelled, AggregateTypeExpense, e.ID, e.CompanyID),
		ExpenseNumber:   e.ExpenseNumber,
		OwnerID:         e.OwnerID,
		Reason:          e.CancelReason,
	}
}
