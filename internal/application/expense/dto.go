package expense

import (
	"io"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateExpenseInput contains the input for creating a draft expense
type CreateExpenseInput struct {
	CompanyID   uuid.UUID
	OwnerID     uuid.UUID
	Category    expense.Category
	Amount      decimal.Decimal
	Currency    string
	Description string
	SpentAt     time.Time
}

// UpdateExpenseInput contains the input for editing a draft
type UpdateExpenseInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
	Category    expense.Category
	Amount      decimal.Decimal
	Currency    string
	Description string
	SpentAt     time.Time
}

// SubmitExpenseInput contains the input for submitting a draft into
// the approval pipeline. A nil FlowID picks the company default flow.
type SubmitExpenseInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
	FlowID      *uuid.UUID
}

// CancelExpenseInput contains the input for withdrawing an expense
type CancelExpenseInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
	Reason      string
}

// MarkPaidInput contains the input for recording a reimbursement
type MarkPaidInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
}

// GetExpenseInput identifies an expense and who is asking for it
type GetExpenseInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
}

// ListExpensesInput contains list filters. OwnerID is forced to the
// requester for non-privileged listings.
type ListExpensesInput struct {
	CompanyID uuid.UUID
	OwnerID   *uuid.UUID
	Status    *expense.Status
	Category  *expense.Category
	DateFrom  *time.Time
	DateTo    *time.Time
	Keyword   string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ListExpensesResult contains a page of expenses
type ListExpensesResult struct {
	Expenses   []ExpenseInfo
	TotalCount int64
	Page       int
	PageSize   int
}

// AttachReceiptInput carries an uploaded receipt file
type AttachReceiptInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ReceiptURLInput asks for a download link to a stored receipt
type ReceiptURLInput struct {
	CompanyID   uuid.UUID
	RequesterID uuid.UUID
	ExpenseID   uuid.UUID
}

// MonthlySummaryInput contains the input for a spending summary
type MonthlySummaryInput struct {
	CompanyID uuid.UUID
	OwnerID   *uuid.UUID // nil = whole company
	Year      int
	Month     time.Month
	Statuses  []expense.Status // empty = approved and paid
}

// CategorySummary is one row of a monthly summary
type CategorySummary struct {
	Category expense.Category
	Total    decimal.Decimal
	Count    int64
}

// MonthlySummaryResult totals spending per category for one month
type MonthlySummaryResult struct {
	Year       int
	Month      time.Month
	Currency   string
	Categories []CategorySummary
	Total      decimal.Decimal
}

// ExpenseInfo is the read model of an expense
type ExpenseInfo struct {
	ID                uuid.UUID
	CompanyID         uuid.UUID
	ExpenseNumber     string
	OwnerID           uuid.UUID
	Category          expense.Category
	Description       string
	SpentAt           time.Time
	OriginalAmount    valueobject.Money
	ConvertedAmount   valueobject.Money
	ExchangeRate      decimal.Decimal
	Status            expense.Status
	ReceiptKey        string
	FlowID            *uuid.UUID
	CurrentStep       int
	ManagerApproverID *uuid.UUID
	SubmittedAt       *time.Time
	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID
	RejectedAt        *time.Time
	RejectedBy        *uuid.UUID
	RejectionReason   string
	PaidAt            *time.Time
	PaidBy            *uuid.UUID
	CancelledAt       *time.Time
	CancelReason      string
	CreatedAt         time.Time
}

// NewExpenseInfo maps an expense to its read model
func NewExpenseInfo(e *expense.Expense) ExpenseInfo {
	return ExpenseInfo{
		ID:                e.ID,
		CompanyID:         e.CompanyID,
		ExpenseNumber:     e.ExpenseNumber,
		OwnerID:           e.OwnerID,
		Category:          e.Category,
		Description:       e.Description,
		SpentAt:           e.SpentAt,
		OriginalAmount:    e.OriginalAmount,
		ConvertedAmount:   e.ConvertedAmount,
		ExchangeRate:      e.ExchangeRate,
		Status:            e.Status,
		ReceiptKey:        e.ReceiptKey,
		FlowID:            e.FlowID,
		CurrentStep:       e.CurrentStep,
		ManagerApproverID: e.ManagerApproverID,
		SubmittedAt:       e.SubmittedAt,
		ApprovedAt:        e.ApprovedAt,
		ApprovedBy:        e.ApprovedBy,
		RejectedAt:        e.RejectedAt,
		RejectedBy:        e.RejectedBy,
		RejectionReason:   e.RejectionReason,
		PaidAt:            e.PaidAt,
		PaidBy:            e.PaidBy,
		CancelledAt:       e.CancelledAt,
		CancelReason:      e.CancelReason,
		CreatedAt:         e.CreatedAt,
	}
}

// CreateBudgetInput contains the input for creating a budget
type CreateBudgetInput struct {
	CompanyID   uuid.UUID
	CreatedBy   uuid.UUID
	Category    expense.Category // empty = overall budget
	Amount      decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// UpdateBudgetInput contains the input for updating a budget
type UpdateBudgetInput struct {
	CompanyID   uuid.UUID
	BudgetID    uuid.UUID
	Category    expense.Category
	Amount      decimal.Decimal
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// BudgetInfo is the read model of a budget
type BudgetInfo struct {
	ID          uuid.UUID
	Category    expense.Category
	Amount      valueobject.Money
	PeriodStart time.Time
	PeriodEnd   time.Time
	CreatedAt   time.Time
}

// NewBudgetInfo maps a budget to its read model
func NewBudgetInfo(b *expense.Budget) BudgetInfo {
	return BudgetInfo{
		ID:          b.ID,
		Category:    b.Category,
		Amount:      b.Amount,
		PeriodStart: b.PeriodStart,
		PeriodEnd:   b.PeriodEnd,
		CreatedAt:   b.CreatedAt,
	}
}

// BudgetReportRow compares one budget against actual approved spend
type BudgetReportRow struct {
	Budget    BudgetInfo
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	Exceeded  bool
}
