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

// GormFlowRepository implements approval.FlowRepository using GORM
type GormFlowRepository struct {
	db *gorm.DB
}

// NewGormFlowRepository creates a new GormFlowRepository
func NewGormFlowRepository(db *gorm.DB) *GormFlowRepository {
	return &GormFlowRepository{db: db}
}

func orderedSteps(db *gorm.DB) *gorm.DB {
	return db.Order("step_number ASC")
}

// Create creates a new flow with its steps
func (r *GormFlowRepository) Create(ctx context.Context, flow *approval.Flow) error {
	model := models.FlowModelFromDomain(flow)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update updates an existing flow. Steps are replaced wholesale since
// a reordered flow can change every row.
func (r *GormFlowRepository) Update(ctx context.Context, flow *approval.Flow) error {
	model := models.FlowModelFromDomain(flow)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit("Steps").Save(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if err := tx.Where("flow_id = ?", flow.ID).Delete(&models.FlowStepModel{}).Error; err != nil {
			return err
		}
		if len(model.Steps) > 0 {
			if err := tx.Create(&model.Steps).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a flow scoped to a company
func (r *GormFlowRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("company_id = ? AND id = ?", companyID, id).
			Delete(&models.FlowModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		// sqlite does not always enforce the FK cascade
		return tx.Where("flow_id = ?", id).Delete(&models.FlowStepModel{}).Error
	})
}

// FindByIDForCompany finds a flow by ID scoped to a company
func (r *GormFlowRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*approval.Flow, error) {
	var model models.FlowModel
	if err := r.db.WithContext(ctx).
		Preload("Steps", orderedSteps).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForCompany returns every flow of a company
func (r *GormFlowRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]*approval.Flow, error) {
	var flowModels []*models.FlowModel
	if err := r.db.WithContext(ctx).
		Preload("Steps", orderedSteps).
		Where("company_id = ?", companyID).
		Order("is_default DESC, name ASC").
		Find(&flowModels).Error; err != nil {
		return nil, err
	}

	flows := make([]*approval.Flow, len(flowModels))
	for i, model := range flowModels {
		flows[i] = model.ToDomain()
	}
	return flows, nil
}

// FindDefault returns the company's default flow, or nil when none is marked
func (r *GormFlowRepository) FindDefault(ctx context.Context, companyID uuid.UUID) (*approval.Flow, error) {
	var model models.FlowModel
	if err := r.db.WithContext(ctx).
		Preload("Steps", orderedSteps).
		Where("company_id = ? AND is_default = ?", companyID, true).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ClearDefault unmarks any default flow of the company
func (r *GormFlowRepository) ClearDefault(ctx context.Context, companyID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.FlowModel{}).
		Where("company_id = ? AND is_default = ?", companyID, true).
		Update("is_default", false).Error
}

// Ensure GormFlowRepository implements FlowRepository
var _ approval.FlowRepository = (*GormFlowRepository)(nil)
