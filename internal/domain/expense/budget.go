package expense

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Budget caps spending for a category over a period. An empty category
// makes the budget company-wide. Amounts are in the company currency.
type Budget struct {
	shared.CompanyAggregateRoot
	Category    Category // empty = overall budget
	Amount      valueobject.Money
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// NewBudget creates a new budget
func NewBudget(companyID, createdBy uuid.UUID, category Category, amount valueobject.Money, periodStart, periodEnd time.Time) (*Budget, error) {
	if err := validateBudget(category, amount, periodStart, periodEnd); err != nil {
		return nil, err
	}

	return &Budget{
		CompanyAggregateRoot: shared.NewCompanyAggregateRootWithCreator(companyID, createdBy),
		Category:             category,
		Amount:               amount,
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
	}, nil
}

// Update replaces the budget's cap and period
func (b *Budget) Update(category Category, amount valueobject.Money, periodStart, periodEnd time.Time) error {
	if err := validateBudget(category, amount, periodStart, periodEnd); err != nil {
		return err
	}

	b.Category = category
	b.Amount = amount
	b.PeriodStart = periodStart
	b.PeriodEnd = periodEnd
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// Covers returns true if the moment falls inside the budget period
func (b *Budget) Covers(at time.Time) bool {
	return !at.Before(b.PeriodStart) && !at.After(b.PeriodEnd)
}

func validateBudget(category Category, amount valueobject.Money, periodStart, periodEnd time.Time) error {
	if category != "" && !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY", "Budget category is not valid")
	}
	if amount.Currency() == "" {
		return shared.NewDomainError("INVALID_AMOUNT", "Budget currency cannot be empty")
	}
	if amount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Budget amount cannot be negative")
	}
	if periodStart.IsZero() || periodEnd.IsZero() {
		return shared.NewDomainError("INVALID_PERIOD", "Budget period is required")
	}
	if !periodEnd.After(periodStart) {
		return shared.NewDomainError("INVALID_PERIOD", "Budget period end must be after its start")
	}
	return nil
}
