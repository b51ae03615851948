package identity

import (
	"context"

	"github.com/google/uuid"
)

// CompanyRepository defines the interface for company persistence
type CompanyRepository interface {
	// Create creates a new company
	Create(ctx context.Context, company *Company) error

	// CreateWithAdmin persists a company together with its first admin
	// user atomically. Neither row survives if the other cannot be
	// written.
	CreateWithAdmin(ctx context.Context, company *Company, admin *User) error

	// Update updates an existing company
	Update(ctx context.Context, company *Company) error

	// FindByID finds a company by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Company, error)

	// FindAll returns all companies (operator use)
	FindAll(ctx context.Context, page, pageSize int) ([]*Company, int64, error)

	// ActiveCurrencyCodes returns the distinct base currencies of
	// active companies, used to warm the exchange-rate cache
	ActiveCurrencyCodes(ctx context.Context) ([]string, error)
}
