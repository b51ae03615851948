package expense

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BudgetService manages spending caps and the spend-vs-budget report
type BudgetService struct {
	budgetRepo  expense.BudgetRepository
	expenseRepo expense.Repository
	companyRepo identity.CompanyRepository
	logger      *zap.Logger
}

// NewBudgetService creates a new budget service
func NewBudgetService(
	budgetRepo expense.BudgetRepository,
	expenseRepo expense.Repository,
	companyRepo identity.CompanyRepository,
	logger *zap.Logger,
) *BudgetService {
	return &BudgetService{
		budgetRepo:  budgetRepo,
		expenseRepo: expenseRepo,
		companyRepo: companyRepo,
		logger:      logger,
	}
}

// CreateBudget creates a budget denominated in the company currency
func (s *BudgetService) CreateBudget(ctx context.Context, input CreateBudgetInput) (*BudgetInfo, error) {
	amount, err := s.companyMoney(ctx, input.CompanyID, input.Amount)
	if err != nil {
		return nil, err
	}

	b, err := expense.NewBudget(input.CompanyID, input.CreatedBy, input.Category, amount, input.PeriodStart, input.PeriodEnd)
	if err != nil {
		return nil, err
	}

	if err := s.budgetRepo.Create(ctx, b); err != nil {
		s.logger.Error("Failed to persist budget", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create budget")
	}

	s.logger.Info("Budget created",
		zap.String("budget_id", b.ID.String()),
		zap.String("category", string(b.Category)),
		zap.String("amount", b.Amount.String()))

	info := NewBudgetInfo(b)
	return &info, nil
}

// UpdateBudget replaces a budget's cap and period
func (s *BudgetService) UpdateBudget(ctx context.Context, input UpdateBudgetInput) (*BudgetInfo, error) {
	b, err := s.budgetRepo.FindByIDForCompany(ctx, input.CompanyID, input.BudgetID)
	if err != nil {
		return nil, shared.NewDomainError("BUDGET_NOT_FOUND", "Budget not found")
	}

	amount, err := s.companyMoney(ctx, input.CompanyID, input.Amount)
	if err != nil {
		return nil, err
	}

	if err := b.Update(input.Category, amount, input.PeriodStart, input.PeriodEnd); err != nil {
		return nil, err
	}
	if err := s.budgetRepo.Update(ctx, b); err != nil {
		s.logger.Error("Failed to update budget", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update budget")
	}

	info := NewBudgetInfo(b)
	return &info, nil
}

// DeleteBudget removes a budget
func (s *BudgetService) DeleteBudget(ctx context.Context, companyID, budgetID uuid.UUID) error {
	if _, err := s.budgetRepo.FindByIDForCompany(ctx, companyID, budgetID); err != nil {
		return shared.NewDomainError("BUDGET_NOT_FOUND", "Budget not found")
	}
	if err := s.budgetRepo.Delete(ctx, companyID, budgetID); err != nil {
		s.logger.Error("Failed to delete budget", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete budget")
	}
	return nil
}

// ListBudgets returns every budget of the company
func (s *BudgetService) ListBudgets(ctx context.Context, companyID uuid.UUID) ([]BudgetInfo, error) {
	budgets, err := s.budgetRepo.FindAllForCompany(ctx, companyID)
	if err != nil {
		s.logger.Error("Failed to list budgets", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list budgets")
	}

	infos := make([]BudgetInfo, len(budgets))
	for i, b := range budgets {
		infos[i] = NewBudgetInfo(b)
	}
	return infos, nil
}

// SpendReport compares approved and paid spend against every budget of
// the company. Category budgets count only their category; an overall
// budget counts all spend in its period.
func (s *BudgetService) SpendReport(ctx context.Context, companyID uuid.UUID) ([]BudgetReportRow, error) {
	// The report aggregates spend per budget, so tag the work for the
	// continuous profiler
	var rows []BudgetReportRow
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationBudgetSpendReport, nil), func(c context.Context) {
		budgets, err := s.budgetRepo.FindAllForCompany(c, companyID)
		if err != nil {
			s.logger.Error("Failed to load budgets for report", zap.Error(err))
			operationErr = shared.NewDomainError("INTERNAL_ERROR", "Failed to build budget report")
			return
		}

		statuses := []expense.Status{expense.StatusApproved, expense.StatusPaid}
		rows = make([]BudgetReportRow, 0, len(budgets))
		for _, b := range budgets {
			totals, err := s.expenseRepo.SumByCategory(c, companyID, nil, b.PeriodStart, b.PeriodEnd, statuses)
			if err != nil {
				s.logger.Error("Failed to sum spend for budget",
					zap.String("budget_id", b.ID.String()),
					zap.Error(err))
				operationErr = shared.NewDomainError("INTERNAL_ERROR", "Failed to build budget report")
				return
			}

			spent := decimal.Zero
			for _, t := range totals {
				if b.Category == "" || t.Category == b.Category {
					spent = spent.Add(t.Total)
				}
			}

			remaining := b.Amount.Amount().Sub(spent)
			rows = append(rows, BudgetReportRow{
				Budget:    NewBudgetInfo(b),
				Spent:     spent,
				Remaining: remaining,
				Exceeded:  remaining.IsNegative(),
			})
		}
	})
	if operationErr != nil {
		return nil, operationErr
	}
	return rows, nil
}

// companyMoney denominates an amount in the company's base currency
func (s *BudgetService) companyMoney(ctx context.Context, companyID uuid.UUID, amount decimal.Decimal) (valueobject.Money, error) {
	company, err := s.companyRepo.FindByID(ctx, companyID)
	if err != nil {
		return valueobject.Money{}, shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
	}
	return valueobject.NewMoney(amount, company.CurrencyCode)
}
