// Package metrics feeds business metrics from domain events so the
// instrument calls stay out of the application services.
package metrics

import (
	"context"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ExpenseMetrics is the slice of the telemetry instruments the recorder
// drives. Satisfied by telemetry.BusinessMetrics.
type ExpenseMetrics interface {
	RecordExpenseSubmitted(ctx context.Context, companyID uuid.UUID, category string, amount decimal.Decimal, currency string)
	RecordDecision(ctx context.Context, companyID uuid.UUID, status string)
	RecordApprovalDuration(ctx context.Context, companyID uuid.UUID, finalStatus string, d time.Duration)
}

// Recorder subscribes to the event bus and turns expense and approval
// events into metric samples.
type Recorder struct {
	metrics ExpenseMetrics
	logger  *zap.Logger
}

// NewRecorder creates a metrics recorder
func NewRecorder(metrics ExpenseMetrics, logger *zap.Logger) *Recorder {
	return &Recorder{
		metrics: metrics,
		logger:  logger,
	}
}

// EventTypes returns the events the recorder samples
func (r *Recorder) EventTypes() []string {
	return []string{
		expense.EventTypeExpenseSubmitted,
		expense.EventTypeExpenseApproved,
		expense.EventTypeExpenseRejected,
		approval.EventTypeDecisionRecorded,
	}
}

// Handle records the metric sample for the event. Unparseable payloads
// are logged and skipped; metrics never fail the event pipeline.
func (r *Recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *expense.ExpenseSubmittedEvent:
		amount, err := decimal.NewFromString(e.ConvertedAmount)
		if err != nil {
			r.logger.Warn("Skipping submission metric: bad amount",
				zap.String("expense_number", e.ExpenseNumber),
				zap.String("amount", e.ConvertedAmount))
			return nil
		}
		r.metrics.RecordExpenseSubmitted(ctx, e.CompanyID(), string(e.Category), amount, e.Currency)

	case *expense.ExpenseApprovedEvent:
		r.recordDuration(ctx, e.CompanyID(), string(expense.StatusApproved), e.SubmittedAt, e.OccurredAt())

	case *expense.ExpenseRejectedEvent:
		r.recordDuration(ctx, e.CompanyID(), string(expense.StatusRejected), e.SubmittedAt, e.OccurredAt())

	case *approval.DecisionRecordedEvent:
		r.metrics.RecordDecision(ctx, e.CompanyID(), string(e.Status))
	}

	return nil
}

func (r *Recorder) recordDuration(ctx context.Context, companyID uuid.UUID, finalStatus string, submittedAt *time.Time, decidedAt time.Time) {
	if submittedAt == nil || decidedAt.Before(*submittedAt) {
		return
	}
	r.metrics.RecordApprovalDuration(ctx, companyID, finalStatus, decidedAt.Sub(*submittedAt))
}
