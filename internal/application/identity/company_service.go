package identity

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompanyService handles company administration
type CompanyService struct {
	companyRepo identity.CompanyRepository
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(
	companyRepo identity.CompanyRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *CompanyService {
	return &CompanyService{
		companyRepo: companyRepo,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// GetCompany returns the caller's company
func (s *CompanyService) GetCompany(ctx context.Context, companyID uuid.UUID) (*CompanyInfo, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return nil, shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
	}
	info := NewCompanyInfo(company)
	return &info, nil
}

// UpdateCompany renames the company. The base currency is fixed at
// signup and never changes, as converted amounts already on record
// would become meaningless.
func (s *CompanyService) UpdateCompany(ctx context.Context, input UpdateCompanyInput) (*CompanyInfo, error) {
	company, err := s.companyRepo.FindByID(ctx, input.CompanyID)
	if err != nil {
		return nil, shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
	}

	if err := company.Rename(input.Name); err != nil {
		return nil, err
	}
	if err := s.companyRepo.Update(ctx, company); err != nil {
		s.logger.Error("Failed to update company", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update company")
	}

	s.publishEvents(ctx, company)

	s.logger.Info("Company updated",
		zap.String("company_id", company.ID.String()),
		zap.String("name", company.Name))

	info := NewCompanyInfo(company)
	return &info, nil
}

func (s *CompanyService) publishEvents(ctx context.Context, company *identity.Company) {
	events := company.GetDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	company.ClearDomainEvents()
}
