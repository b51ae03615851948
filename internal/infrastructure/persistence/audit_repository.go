package persistence

import (
	"context"

	"github.com/Jay1425/ExpensoX/internal/domain/audit"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditRepository implements audit.Repository using GORM. Audit
// rows are append-only.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Create stores an audit log entry
func (r *GormAuditRepository) Create(ctx context.Context, log *audit.Log) error {
	model, err := models.AuditLogModelFromDomain(log)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// FindAll returns audit entries for a company matching the filter,
// newest first
func (r *GormAuditRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter audit.Filter) ([]*audit.Log, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.AuditLogModel{}).
		Where("company_id = ?", companyID)

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", string(*filter.Action))
	}
	if filter.AggregateType != "" {
		query = query.Where("aggregate_type = ?", filter.AggregateType)
	}
	if filter.AggregateID != nil {
		query = query.Where("aggregate_id = ?", *filter.AggregateID)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logModels []*models.AuditLogModel
	if err := query.
		Order("occurred_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&logModels).Error; err != nil {
		return nil, 0, err
	}

	return auditLogsToDomain(logModels), total, nil
}

// FindByAggregate returns the full trail of one aggregate, oldest first
func (r *GormAuditRepository) FindByAggregate(ctx context.Context, companyID, aggregateID uuid.UUID) ([]*audit.Log, error) {
	var logModels []*models.AuditLogModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND aggregate_id = ?", companyID, aggregateID).
		Order("occurred_at ASC").
		Find(&logModels).Error; err != nil {
		return nil, err
	}
	return auditLogsToDomain(logModels), nil
}

func auditLogsToDomain(logModels []*models.AuditLogModel) []*audit.Log {
	logs := make([]*audit.Log, len(logModels))
	for i, model := range logModels {
		logs[i] = model.ToDomain()
	}
	return logs
}

// Ensure GormAuditRepository implements Repository
var _ audit.Repository = (*GormAuditRepository)(nil)
