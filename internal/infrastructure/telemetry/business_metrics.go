// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the expense service.
// It tracks expense submissions, approval decisions, and the size of
// the pending-approval queue.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	expenseSubmittedTotal *Counter
	expenseAmountTotal    *Counter
	decisionTotal         *Counter

	// Histogram metrics
	approvalDuration *Histogram

	// Gauge metrics (point-in-time values)
	pendingApprovalCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	pendingProvider PendingMetricsProvider
}

// PendingMetricsProvider reports the number of expenses waiting for a
// decision. The interface keeps the telemetry layer off the expense
// domain packages.
type PendingMetricsProvider interface {
	// GetPendingCountByCompany returns pending expense counts keyed by company
	GetPendingCountByCompany(ctx context.Context) (map[uuid.UUID]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	PendingProvider PendingMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		pendingProvider: cfg.PendingProvider,
	}

	var err error

	bm.expenseSubmittedTotal, err = NewCounter(
		cfg.Meter,
		"expensox_expense_submitted_total",
		"Total number of expenses submitted for approval",
		"{expenses}",
	)
	if err != nil {
		return nil, err
	}

	bm.expenseAmountTotal, err = NewCounter(
		cfg.Meter,
		"expensox_expense_amount_total",
		"Total submitted expense amount in company-currency cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.decisionTotal, err = NewCounter(
		cfg.Meter,
		"expensox_decision_total",
		"Total number of approval decisions recorded",
		"{decisions}",
	)
	if err != nil {
		return nil, err
	}

	bm.approvalDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "expensox_approval_duration_seconds",
		Description: "Time from expense submission to final decision",
		Unit:        "s",
		Boundaries:  ApprovalDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.pendingApprovalCount, err = NewGauge(
		cfg.Meter,
		"expensox_pending_approval_count",
		"Number of expenses currently waiting for a decision",
		"{expenses}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Expense Metrics
// =============================================================================

// RecordExpenseSubmitted records an expense submission. Amount is the
// converted amount in the company currency.
func (bm *BusinessMetrics) RecordExpenseSubmitted(ctx context.Context, companyID uuid.UUID, category string, amount decimal.Decimal, currency string) {
	bm.expenseSubmittedTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrExpenseCategory.String(category),
	)

	amountCents := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.expenseAmountTotal.Add(ctx, amountCents,
		AttrCompanyID.String(companyID.String()),
		AttrExpenseCategory.String(category),
		AttrCurrency.String(currency),
	)
}

// =============================================================================
// Decision Metrics
// =============================================================================

// RecordDecision records an approval decision outcome.
func (bm *BusinessMetrics) RecordDecision(ctx context.Context, companyID uuid.UUID, status string) {
	bm.decisionTotal.Inc(ctx,
		AttrCompanyID.String(companyID.String()),
		AttrDecisionStatus.String(status),
	)
}

// RecordApprovalDuration records how long an expense sat in the
// approval pipeline before reaching a terminal decision.
func (bm *BusinessMetrics) RecordApprovalDuration(ctx context.Context, companyID uuid.UUID, finalStatus string, d time.Duration) {
	bm.approvalDuration.RecordDuration(ctx, d,
		AttrCompanyID.String(companyID.String()),
		AttrExpenseStatus.String(finalStatus),
	)
}

// RecordPendingCount records the current pending-approval queue depth
// for a company. This is a gauge that should be updated periodically.
func (bm *BusinessMetrics) RecordPendingCount(ctx context.Context, companyID uuid.UUID, count int64) {
	bm.pendingApprovalCount.Record(ctx, count,
		AttrCompanyID.String(companyID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It is non-blocking; use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectPendingMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectPendingMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectPendingMetrics(ctx context.Context) {
	if bm.pendingProvider == nil {
		bm.logger.Debug("No pending provider configured, skipping queue depth collection")
		return
	}

	counts, err := bm.pendingProvider.GetPendingCountByCompany(ctx)
	if err != nil {
		bm.logger.Error("Failed to collect pending expense counts", zap.Error(err))
		return
	}

	for companyID, count := range counts {
		bm.RecordPendingCount(ctx, companyID, count)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ApprovalDurationBuckets are bucket boundaries for approval pipeline
// duration (seconds). Approvals span minutes to days, not milliseconds.
var ApprovalDurationBuckets = []float64{60, 300, 900, 3600, 14400, 43200, 86400, 259200, 604800}
