package persistence

import (
	"context"
	"errors"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRuleRepository implements approval.RuleRepository using GORM
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// Create creates a new rule
func (r *GormRuleRepository) Create(ctx context.Context, rule *approval.Rule) error {
	model := models.RuleModelFromDomain(rule)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing rule. Threshold and approver columns are
// written explicitly so switching rule type can null them out.
func (r *GormRuleRepository) Update(ctx context.Context, rule *approval.Rule) error {
	model := models.RuleModelFromDomain(rule)
	result := r.db.WithContext(ctx).
		Model(&models.RuleModel{}).
		Where("id = ?", rule.ID).
		Select("rule_type", "percentage_threshold", "specific_approver_id", "version", "updated_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a rule scoped to a company
func (r *GormRuleRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		Delete(&models.RuleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByIDForCompany finds a rule by ID scoped to a company
func (r *GormRuleRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*approval.Rule, error) {
	var model models.RuleModel
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

// FindByFlow returns the rules attached to a flow
func (r *GormRuleRepository) FindByFlow(ctx context.Context, companyID, flowID uuid.UUID) ([]*approval.Rule, error) {
	var ruleModels []*models.RuleModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND flow_id = ?", companyID, flowID).
		Order("created_at ASC").
		Find(&ruleModels).Error; err != nil {
		return nil, err
	}

	rules := make([]*approval.Rule, len(ruleModels))
	for i, model := range ruleModels {
		rules[i] = model.ToDomain()
	}
	return rules, nil
}

// Ensure GormRuleRepository implements RuleRepository
var _ approval.RuleRepository = (*GormRuleRepository)(nil)
