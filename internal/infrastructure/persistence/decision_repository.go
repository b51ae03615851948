package persistence

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDecisionRepository implements approval.DecisionRepository using
// GORM. Decision rows are append-only.
type GormDecisionRepository struct {
	db *gorm.DB
}

// NewGormDecisionRepository creates a new GormDecisionRepository
func NewGormDecisionRepository(db *gorm.DB) *GormDecisionRepository {
	return &GormDecisionRepository{db: db}
}

// Create stores a decision
func (r *GormDecisionRepository) Create(ctx context.Context, decision *approval.Decision) error {
	model := models.DecisionModelFromDomain(decision)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByExpense returns the full decision history of an expense,
// ordered by step then acted-at
func (r *GormDecisionRepository) FindByExpense(ctx context.Context, companyID, expenseID uuid.UUID) ([]*approval.Decision, error) {
	var decisionModels []*models.DecisionModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND expense_id = ?", companyID, expenseID).
		Order("step_number ASC, acted_at ASC").
		Find(&decisionModels).Error; err != nil {
		return nil, err
	}

	decisions := make([]*approval.Decision, len(decisionModels))
	for i, model := range decisionModels {
		decisions[i] = model.ToDomain()
	}
	return decisions, nil
}

// HasDecisionAtStep reports whether the approver already acted on the
// expense at the given step
func (r *GormDecisionRepository) HasDecisionAtStep(ctx context.Context, expenseID, approverID uuid.UUID, stepNumber int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DecisionModel{}).
		Where("expense_id = ? AND approver_id = ? AND step_number = ?", expenseID, approverID, stepNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a decision by ID
func (r *GormDecisionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.DecisionModel{}).Error
}

// Ensure GormDecisionRepository implements DecisionRepository
var _ approval.DecisionRepository = (*GormDecisionRepository)(nil)
