// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPendingMetricsProvider implements PendingMetricsProvider using GORM.
// It queries the expenses table directly for queue depths.
type GormPendingMetricsProvider struct {
	db *gorm.DB
}

// NewGormPendingMetricsProvider creates a new GormPendingMetricsProvider.
func NewGormPendingMetricsProvider(db *gorm.DB) *GormPendingMetricsProvider {
	return &GormPendingMetricsProvider{db: db}
}

// GetPendingCountByCompany returns the number of expenses awaiting a
// decision, keyed by company.
func (p *GormPendingMetricsProvider) GetPendingCountByCompany(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		CompanyID uuid.UUID `gorm:"column:company_id"`
		Pending   int64     `gorm:"column:pending"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("expenses").
		Select("company_id, COUNT(*) as pending").
		Where("status IN ?", []string{"PENDING", "IN_PROGRESS"}).
		Group("company_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		counts[r.CompanyID] = r.Pending
	}
	return counts, nil
}

var _ PendingMetricsProvider = (*GormPendingMetricsProvider)(nil)
