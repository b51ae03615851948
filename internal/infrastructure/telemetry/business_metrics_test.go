package telemetry_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Jay1425/ExpensoX/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func newBusinessMetrics(t *testing.T, provider telemetry.PendingMetricsProvider) *telemetry.BusinessMetrics {
	t.Helper()
	meter := noop.NewMeterProvider().Meter("test")
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:           meter,
		Logger:          zap.NewNop(),
		PendingProvider: provider,
	})
	require.NoError(t, err)
	return bm
}

func TestNewBusinessMetrics(t *testing.T) {
	bm := newBusinessMetrics(t, nil)
	require.NotNil(t, bm)
}

func TestNewBusinessMetrics_NilMeter(t *testing.T) {
	bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, bm)
	assert.Equal(t, "NewBusinessMetrics: meter cannot be nil", err.Error())
}

func TestBusinessMetrics_RecordExpenseSubmitted(t *testing.T) {
	bm := newBusinessMetrics(t, nil)
	ctx := context.Background()
	companyID := uuid.New()

	// Should not panic
	bm.RecordExpenseSubmitted(ctx, companyID, "TRAVEL", decimal.NewFromFloat(120.50), "USD")
	bm.RecordExpenseSubmitted(ctx, companyID, "MEALS", decimal.NewFromFloat(39.99), "EUR")
}

func TestBusinessMetrics_RecordDecision(t *testing.T) {
	bm := newBusinessMetrics(t, nil)
	ctx := context.Background()
	companyID := uuid.New()

	bm.RecordDecision(ctx, companyID, "APPROVED")
	bm.RecordDecision(ctx, companyID, "REJECTED")
	bm.RecordDecision(ctx, companyID, "ESCALATED")
}

func TestBusinessMetrics_RecordApprovalDuration(t *testing.T) {
	bm := newBusinessMetrics(t, nil)
	ctx := context.Background()

	bm.RecordApprovalDuration(ctx, uuid.New(), "APPROVED", 4*time.Hour)
	bm.RecordApprovalDuration(ctx, uuid.New(), "REJECTED", 30*time.Minute)
}

func TestBusinessMetrics_RecordPendingCount(t *testing.T) {
	bm := newBusinessMetrics(t, nil)

	bm.RecordPendingCount(context.Background(), uuid.New(), 12)
}

type stubPendingProvider struct {
	mu     sync.Mutex
	calls  int
	counts map[uuid.UUID]int64
	err    error
}

func (p *stubPendingProvider) GetPendingCountByCompany(ctx context.Context) (map[uuid.UUID]int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.counts, p.err
}

func (p *stubPendingProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestBusinessMetrics_PeriodicCollection(t *testing.T) {
	provider := &stubPendingProvider{
		counts: map[uuid.UUID]int64{uuid.New(): 3, uuid.New(): 7},
	}
	bm := newBusinessMetrics(t, provider)
	defer bm.Stop()

	bm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return provider.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBusinessMetrics_PeriodicCollection_ProviderError(t *testing.T) {
	provider := &stubPendingProvider{err: assert.AnError}
	bm := newBusinessMetrics(t, provider)
	defer bm.Stop()

	bm.StartPeriodicCollection(context.Background(), 10*time.Millisecond)

	// Collection keeps running despite errors
	assert.Eventually(t, func() bool {
		return provider.callCount() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestBusinessMetrics_StopIsIdempotent(t *testing.T) {
	bm := newBusinessMetrics(t, &stubPendingProvider{})
	bm.StartPeriodicCollection(context.Background(), time.Hour)

	bm.Stop()
	bm.Stop()
}
