package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBudgetRepository implements expense.BudgetRepository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GormBudgetRepository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

// Create creates a new budget
func (r *GormBudgetRepository) Create(ctx context.Context, b *expense.Budget) error {
	model := models.BudgetModelFromDomain(b)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing budget
func (r *GormBudgetRepository) Update(ctx context.Context, b *expense.Budget) error {
	model := models.BudgetModelFromDomain(b)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a budget scoped to a company
func (r *GormBudgetRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		Delete(&models.BudgetModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDForCompany finds a budget by ID scoped to a company
func (r *GormBudgetRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*expense.Budget, error) {
	var model models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany returns every budget of a company
func (r *GormBudgetRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]*expense.Budget, error) {
	var budgetModels []*models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("period_start DESC, category ASC").
		Find(&budgetModels).Error; err != nil {
		return nil, err
	}
	return budgetsToDomain(budgetModels), nil
}

// FindActiveAt returns the budgets whose period covers the moment
func (r *GormBudgetRepository) FindActiveAt(ctx context.Context, companyID uuid.UUID, at time.Time) ([]*expense.Budget, error) {
	var budgetModels []*models.BudgetModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND period_start <= ? AND period_end >= ?", companyID, at, at).
		Order("category ASC").
		Find(&budgetModels).Error; err != nil {
		return nil, err
	}
	return budgetsToDomain(budgetModels), nil
}

func budgetsToDomain(budgetModels []*models.BudgetModel) []*expense.Budget {
	budgets := make([]*expense.Budget, len(budgetModels))
	for i, model := range budgetModels {
		budgets[i] = model.ToDomain()
	}
	return budgets
}

// Ensure GormBudgetRepository implements BudgetRepository
var _ expense.BudgetRepository = (*GormBudgetRepository)(nil)
