package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for expense persistence
type Repository interface {
	// Create creates a new expense
	Create(ctx context.Context, e *Expense) error

	// Update updates an existing expense with optimistic locking
	Update(ctx context.Context, e *Expense) error

	// FindByIDForCompany finds an expense by ID scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Expense, error)

	// FindAll returns expenses for a company matching the filter
	FindAll(ctx context.Context, companyID uuid.UUID, filter Filter) ([]*Expense, int64, error)

	// FindPendingForApprover returns expenses waiting on the given
	// user: either at a flow step the user approves, or at the manager
	// pre-step with the user as manager approver. The step match is
	// resolved against the stored flow definitions.
	FindPendingForApprover(ctx context.Context, companyID, approverID uuid.UUID, filter Filter) ([]*Expense, int64, error)

	// CountForMonth counts expenses a company created in a month,
	// used to build sequential expense numbers
	CountForMonth(ctx context.Context, companyID uuid.UUID, year int, month time.Month) (int64, error)

	// CountActiveByFlow counts non-terminal expenses routed through a
	// flow, used to block deleting flows that are still in use
	CountActiveByFlow(ctx context.Context, companyID, flowID uuid.UUID) (int64, error)

	// SumByCategory sums converted amounts per category for expenses
	// in the given statuses within a period. A nil ownerID sums the
	// whole company.
	SumByCategory(ctx context.Context, companyID uuid.UUID, ownerID *uuid.UUID, from, to time.Time, statuses []Status) ([]CategoryTotal, error)
}

// CategoryTotal is an aggregate row of converted spending per category
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
}

// Filter contains filter options for querying expenses
type Filter struct {
	OwnerID  *uuid.UUID
	Status   *Status
	Category *Category
	DateFrom *time.Time
	DateTo   *time.Time
	Keyword  string

	Page     int
	PageSize int

	SortBy    string
	SortOrder string // "asc" or "desc"
}

// NewFilter creates a Filter with default values
func NewFilter() Filter {
	return Filter{
		Page:      1,
		PageSize:  20,
		SortBy:    "created_at",
		SortOrder: "desc",
	}
}

// WithOwner scopes the filter to one owner
func (f Filter) WithOwner(ownerID uuid.UUID) Filter {
	f.OwnerID = &ownerID
	return f
}

// WithStatus sets the status filter
func (f Filter) WithStatus(status Status) Filter {
	f.Status = &status
	return f
}

// WithCategory sets the category filter
func (f Filter) WithCategory(category Category) Filter {
	f.Category = &category
	return f
}

// WithDateRange bounds the spend date
func (f Filter) WithDateRange(from, to time.Time) Filter {
	f.DateFrom = &from
	f.DateTo = &to
	return f
}

// WithPagination sets pagination parameters
func (f Filter) WithPagination(page, pageSize int) Filter {
	f.Page = page
	f.PageSize = pageSize
	return f
}

// Offset returns the offset for pagination
func (f Filter) Offset() int {
	if f.Page <= 0 {
		return 0
	}
	return (f.Page - 1) * f.Limit()
}

// Limit returns the limit for pagination
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return 20
	}
	if f.PageSize > 100 {
		return 100
	}
	return f.PageSize
}
