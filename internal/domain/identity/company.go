package identity

import (
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
)

// CompanyStatus represents the status of a company
type CompanyStatus string

const (
	CompanyStatusActive    CompanyStatus = "active"
	CompanyStatusSuspended CompanyStatus = "suspended"
)

// Company is the tenant aggregate. It is created exactly once during
// signup and carries the base currency every expense is converted into.
type Company struct {
	shared.BaseAggregateRoot
	Name         string               `gorm:"type:varchar(200);not null"`
	Country      string               `gorm:"type:varchar(100);not null"`
	CurrencyCode valueobject.Currency `gorm:"type:varchar(3);not null"`
	Status       CompanyStatus        `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Company) TableName() string {
	return "companies"
}

// NewCompany creates a new company with its base currency
func NewCompany(name, country string, currency valueobject.Currency) (*Company, error) {
	if err := validateCompanyName(name); err != nil {
		return nil, err
	}
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, shared.NewDomainError("INVALID_COUNTRY", "Country cannot be empty")
	}
	if currency == "" {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Currency code cannot be empty")
	}

	company := &Company{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Country:           country,
		CurrencyCode:      currency,
		Status:            CompanyStatusActive,
	}

	company.AddDomainEvent(NewCompanyCreatedEvent(company))

	return company, nil
}

// Rename updates the company name
func (c *Company) Rename(name string) error {
	if err := validateCompanyName(name); err != nil {
		return err
	}

	c.Name = name
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCompanyUpdatedEvent(c))

	return nil
}

// Suspend suspends the company; logins of its users are rejected
func (c *Company) Suspend() error {
	if c.Status == CompanyStatusSuspended {
		return shared.NewDomainError("ALREADY_SUSPENDED", "Company is already suspended")
	}

	oldStatus := c.Status
	c.Status = CompanyStatusSuspended
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCompanyStatusChangedEvent(c, oldStatus, CompanyStatusSuspended))

	return nil
}

// Activate re-activates a suspended company
func (c *Company) Activate() error {
	if c.Status == CompanyStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Company is already active")
	}

	oldStatus := c.Status
	c.Status = CompanyStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCompanyStatusChangedEvent(c, oldStatus, CompanyStatusActive))

	return nil
}

// IsActive returns true if the company is active
func (c *Company) IsActive() bool {
	return c.Status == CompanyStatusActive
}

func validateCompanyName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Company name cannot exceed 200 characters")
	}
	return nil
}
