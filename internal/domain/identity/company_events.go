package identity

import (
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
)

// Aggregate type constant for Company
const AggregateTypeCompany = "Company"

// Company domain event types
const (
	EventTypeCompanyCreated       = "CompanyCreated"
	EventTypeCompanyUpdated       = "CompanyUpdated"
	EventTypeCompanyStatusChanged = "CompanyStatusChanged"
)

// CompanyCreatedEvent is published when a company is created
type CompanyCreatedEvent struct {
	shared.BaseDomainEvent
	Name         string               `json:"name"`
	Country      string               `json:"country"`
	CurrencyCode valueobject.Currency `json:"currency_code"`
}

// NewCompanyCreatedEvent creates a new CompanyCreatedEvent
func NewCompanyCreatedEvent(company *Company) *CompanyCreatedEvent {
	return &CompanyCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyCreated, AggregateTypeCompany, company.ID, company.ID),
		Name:            company.Name,
		Country:         company.Country,
		CurrencyCode:    company.CurrencyCode,
	}
}

// CompanyUpdatedEvent is published when a company is updated
type CompanyUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewCompanyUpdatedEvent creates a new CompanyUpdatedEvent
func NewCompanyUpdatedEvent(company *Company) *CompanyUpdatedEvent {
	return &CompanyUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyUpdated, AggregateTypeCompany, company.ID, company.ID),
		Name:            company.Name,
	}
}

// CompanyStatusChangedEvent is published when a company's status changes
type CompanyStatusChangedEvent struct {
	shared.BaseDomainEvent
	Name      string        `json:"name"`
	OldStatus CompanyStatus `json:"old_status"`
	NewStatus CompanyStatus `json:"new_status"`
}

// NewCompanyStatusChangedEvent creates a new CompanyStatusChangedEvent
func NewCompanyStatusChangedEvent(company *Company, oldStatus, newStatus CompanyStatus) *CompanyStatusChangedEvent {
	return &CompanyStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyStatusChanged, AggregateTypeCompany, company.ID, company.ID),
		Name:            company.Name,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
