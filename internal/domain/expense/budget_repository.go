package expense

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BudgetRepository defines the interface for budget persistence
type BudgetRepository interface {
	// Create creates a new budget
	Create(ctx context.Context, b *Budget) error

	// Update updates an existing budget
	Update(ctx context.Context, b *Budget) error

	// Delete removes a budget scoped to a company
	Delete(ctx context.Context, companyID, id uuid.UUID) error

	// FindByIDForCompany finds a budget by ID scoped to a company
	FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*Budget, error)

	// FindAllForCompany returns every budget of a company
	FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]*Budget, error)

	// FindActiveAt returns the budgets whose period covers the moment
	FindActiveAt(ctx context.Context, companyID uuid.UUID, at time.Time) ([]*Budget, error)
}
