package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents the category of an expense
type Category string

const (
	CategoryTravel         Category = "TRAVEL"
	CategoryMeals          Category = "MEALS"
	CategoryAccommodation  Category = "ACCOMMODATION"
	CategoryOfficeSupplies Category = "OFFICE_SUPPLIES"
	CategoryTransport      Category = "TRANSPORT"
	CategoryEntertainment  Category = "ENTERTAINMENT"
	CategoryTraining       Category = "TRAINING"
	CategoryOther          Category = "OTHER"
)

// IsValid checks if the category is a known Category
func (c Category) IsValid() bool {
	switch c {
	case CategoryTravel, CategoryMeals, CategoryAccommodation,
		CategoryOfficeSupplies, CategoryTransport, CategoryEntertainment,
		CategoryTraining, CategoryOther:
		return true
	}
	return false
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// DisplayName returns a human-readable name for the category
func (c Category) DisplayName() string {
	switch c {
	case CategoryTravel:
		return "Travel"
	case CategoryMeals:
		return "Meals"
	case CategoryAccommodation:
		return "Accommodation"
	case CategoryOfficeSupplies:
		return "Office supplies"
	case CategoryTransport:
		return "Transport"
	case CategoryEntertainment:
		return "Entertainment"
	case CategoryTraining:
		return "Training"
	case CategoryOther:
		return "Other"
	default:
		return string(c)
	}
}

// Status represents the lifecycle state of an expense
type Status string

const (
	StatusDraft      Status = "DRAFT"       // Editable, not yet submitted
	StatusPending    Status = "PENDING"     // Submitted, waiting for the first decision
	StatusInProgress Status = "IN_PROGRESS" // At least one decision recorded, more required
	StatusApproved   Status = "APPROVED"    // Routing finished with approval
	StatusRejected   Status = "REJECTED"    // Routing finished with rejection
	StatusPaid       Status = "PAID"        // Approved and reimbursed
	StatusCancelled  Status = "CANCELLED"   // Withdrawn by the owner
)

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusInProgress, StatusApproved,
		StatusRejected, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true once no further routing can happen
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusPaid || s == StatusCancelled
}

// CanSubmit returns true if the expense can be submitted for approval
func (s Status) CanSubmit() bool {
	return s == StatusDraft
}

// CanDecide returns true if an approver may act on the expense
func (s Status) CanDecide() bool {
	return s == StatusPending || s == StatusInProgress
}

// CanCancel returns true if the owner may withdraw the expense
func (s Status) CanCancel() bool {
	return s == StatusDraft || s == StatusPending
}

// Expense is the aggregate root for an employee expense claim. The
// original amount keeps the currency the money was spent in; the
// converted amount is denominated in the company's base currency and
// is what budgets and reports sum over.
type Expense struct {
	shared.CompanyAggregateRoot
	ExpenseNumber   string
	OwnerID         uuid.UUID
	Category        Category
	Description     string
	SpentAt         time.Time
	OriginalAmount  valueobject.Money
	ConvertedAmount valueobject.Money
	ExchangeRate    decimal.Decimal
	Status          Status
	ReceiptKey      string // Object storage key of the uploaded receipt

	// Routing state, set at submit time
	FlowID            *uuid.UUID
	CurrentStep       int        // 0 = manager pre-approval, 1..N = flow steps
	ManagerApproverID *uuid.UUID // Owner's manager when a pre-approval is required

	SubmittedAt     *time.Time
	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RejectedAt      *time.Time
	RejectedBy      *uuid.UUID
	RejectionReason string
	PaidAt          *time.Time
	PaidBy          *uuid.UUID
	CancelledAt     *time.Time
	CancelReason    string
}

// NewExpense creates a new draft expense
func NewExpense(
	companyID uuid.UUID,
	ownerID uuid.UUID,
	expenseNumber string,
	category Category,
	amount valueobject.Money,
	description string,
	spentAt time.Time,
) (*Expense, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner user ID cannot be empty")
	}
	if expenseNumber == "" {
		return nil, shared.NewDomainError("INVALID_EXPENSE_NUMBER", "Expense number cannot be empty")
	}
	if len(expenseNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_EXPENSE_NUMBER", "Expense number cannot exceed 50 characters")
	}
	if err := validateDetails(category, amount, description, spentAt); err != nil {
		return nil, err
	}

	exp := &Expense{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, ownerID),
		ExpenseNumber:        expenseNumber,
		OwnerID:              ownerID,
		Category:             category,
		Description:          strings.TrimSpace(description),
		SpentAt:              spentAt,
		OriginalAmount:       amount,
		Status:               StatusDraft,
	}

	exp.AddDomainEvent(NewExpenseCreatedEvent(exp))

	return exp, nil
}

// UpdateDraft updates the editable details. Only drafts can change.
func (e *Expense) UpdateDraft(category Category, amount valueobject.Money, description string, spentAt time.Time) error {
	if e.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft expenses can be edited")
	}
	if err := validateDetails(category, amount, description, spentAt); err != nil {
		return err
	}

	e.Category = category
	e.OriginalAmount = amount
	e.Description = strings.TrimSpace(description)
	e.SpentAt = spentAt
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	return nil
}

// AttachReceipt records the object storage key of an uploaded receipt
func (e *Expense) AttachReceipt(key string) error {
	if e.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot attach a receipt to a %s expense", e.Status))
	}
	if key == "" {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt key cannot be empty")
	}

	e.ReceiptKey = key
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	return nil
}

// Submit moves the draft into the approval pipeline. The converted
// amount and exchange rate are fixed here; routing state says where
// the first decision must come from.
func (e *Expense) Submit(
	converted valueobject.Money,
	rate decimal.Decimal,
	flowID *uuid.UUID,
	managerApproverID *uuid.UUID,
) error {
	if !e.Status.CanSubmit() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit expense in %s status", e.Status))
	}
	if !rate.IsPositive() {
		return shared.NewDomainError("INVALID_RATE", "Exchange rate must be positive")
	}

	now := time.Now()
	e.ConvertedAmount = converted
	e.ExchangeRate = rate
	e.FlowID = flowID
	e.ManagerApproverID = managerApproverID
	if managerApproverID != nil {
		e.CurrentStep = 0
	} else {
		e.CurrentStep = 1
	}
	e.Status = StatusPending
	e.SubmittedAt = &now
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseSubmittedEvent(e))

	return nil
}

// AdvanceToStep moves the expense to a later routing step
func (e *Expense) AdvanceToStep(step int) error {
	if !e.Status.CanDecide() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot advance expense in %s status", e.Status))
	}
	if step <= e.CurrentStep {
		return shared.NewDomainError("INVALID_STEP", "Routing can only advance forward")
	}

	e.CurrentStep = step
	e.Status = StatusInProgress
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	return nil
}

// FinalizeApproved ends routing with an approval
func (e *Expense) FinalizeApproved(approvedBy uuid.UUID) error {
	if !e.Status.CanDecide() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve expense in %s status", e.Status))
	}
	if approvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Approver user ID cannot be empty")
	}

	now := time.Now()
	e.Status = StatusApproved
	e.ApprovedAt = &now
	e.ApprovedBy = &approvedBy
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseApprovedEvent(e))

	return nil
}

// FinalizeRejected ends routing with a rejection. A reason is mandatory.
func (e *Expense) FinalizeRejected(rejectedBy uuid.UUID, reason string) error {
	if !e.Status.CanDecide() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject expense in %s status", e.Status))
	}
	if rejectedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Rejector user ID cannot be empty")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}

	now := time.Now()
	e.Status = StatusRejected
	e.RejectedAt = &now
	e.RejectedBy = &rejectedBy
	e.RejectionReason = reason
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseRejectedEvent(e))

	return nil
}

// MarkPaid records the reimbursement of an approved expense
func (e *Expense) MarkPaid(paidBy uuid.UUID) error {
	if e.Status != StatusApproved {
		return shared.NewDomainError("INVALID_STATE", "Only approved expenses can be marked as paid")
	}
	if paidBy == uuid.Nil {
		return shared.NewDomainError("INVALID_USER", "Payer user ID cannot be empty")
	}

	now := time.Now()
	e.Status = StatusPaid
	e.PaidAt = &now
	e.PaidBy = &paidBy
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpensePaidEvent(e))

	return nil
}

// Cancel withdraws the expense. Allowed until the first decision lands.
func (e *Expense) Cancel(cancelledBy uuid.UUID, reason string) error {
	if !e.Status.CanCancel() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel expense in %s status", e.Status))
	}
	if cancelledBy != e.OwnerID {
		return shared.NewDomainError("FORBIDDEN", "Only the owner can cancel an expense")
	}

	now := time.Now()
	e.Status = StatusCancelled
	e.CancelledAt = &now
	e.CancelReason = reason
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseCancelledEvent(e))

	return nil
}

// AwaitingManagerApproval returns true while the manager pre-step is open
func (e *Expense) AwaitingManagerApproval() bool {
	return e.Status.CanDecide() && e.ManagerApproverID != nil && e.CurrentStep == 0
}

// IsDraft returns true if the expense is in draft status
func (e *Expense) IsDraft() bool {
	return e.Status == StatusDraft
}

// IsApproved returns true if the expense is approved
func (e *Expense) IsApproved() bool {
	return e.Status == StatusApproved
}

func validateDetails(category Category, amount valueobject.Money, description string, spentAt time.Time) error {
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Expense category is not valid")
	}
	if amount.Currency() == "" {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount currency cannot be empty")
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Amount must be positive")
	}
	if strings.TrimSpace(description) == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot be empty")
	}
	if len(description) > 500 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 500 characters")
	}
	if spentAt.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Spend date is required")
	}
	if spentAt.After(time.Now().Add(24 * time.Hour)) {
		return shared.NewDomainError("INVALID_DATE", "Spend date cannot be in the future")
	}
	return nil
}
