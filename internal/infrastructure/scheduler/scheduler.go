// Package scheduler runs the recurring maintenance jobs: purging
// expired OTP codes and refreshing cached exchange rates.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OTPPurger deletes OTP codes that expired before the cutoff
type OTPPurger interface {
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CurrencyLister reports which currencies active companies use
type CurrencyLister interface {
	ActiveCurrencyCodes(ctx context.Context) ([]string, error)
}

// RateRefresher pre-warms the exchange rate cache for the given bases
type RateRefresher interface {
	Refresh(ctx context.Context, bases []string) error
}

// Config holds scheduler settings
type Config struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// OTPPurgeSchedule is the cron spec for purging expired OTP codes
	OTPPurgeSchedule string

	// RateRefreshEnabled enables background exchange rate refresh
	RateRefreshEnabled bool

	// RateRefreshSpec is the cron spec for exchange rate refresh
	RateRefreshSpec string

	// JobTimeout is the per-job context deadline
	JobTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		OTPPurgeSchedule:   "0 3 * * *", // 3 AM daily
		RateRefreshEnabled: true,
		RateRefreshSpec:    "@every 1h",
		JobTimeout:         5 * time.Minute,
	}
}

// Scheduler runs maintenance jobs on cron schedules
type Scheduler struct {
	config     Config
	otps       OTPPurger
	currencies CurrencyLister
	rates      RateRefresher
	logger     *zap.Logger

	cron      *cron.Cron
	baseCtx   context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a scheduler. The rate refresher may be nil when
// background refresh is disabled.
func NewScheduler(
	config Config,
	otps OTPPurger,
	currencies CurrencyLister,
	rates RateRefresher,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		config:     config,
		otps:       otps,
		currencies: currencies,
		rates:      rates,
		logger:     logger,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Scheduler is disabled")
		return nil
	}

	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New()

	if _, err := s.cron.AddFunc(s.config.OTPPurgeSchedule, s.runOTPPurge); err != nil {
		s.cancel()
		return err
	}

	if s.config.RateRefreshEnabled && s.rates != nil {
		if _, err := s.cron.AddFunc(s.config.RateRefreshSpec, s.runRateRefresh); err != nil {
			s.cancel()
			return err
		}
	}

	s.cron.Start()
	s.isRunning = true

	s.logger.Info("Scheduler started",
		zap.String("otp_purge_schedule", s.config.OTPPurgeSchedule),
		zap.Bool("rate_refresh_enabled", s.config.RateRefreshEnabled && s.rates != nil),
		zap.String("rate_refresh_spec", s.config.RateRefreshSpec),
	)
	return nil
}

// Stop waits for running jobs to finish, bounded by ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	s.cancel()
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the scheduler is running
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// TriggerOTPPurge runs the purge job immediately
func (s *Scheduler) TriggerOTPPurge(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	return s.purgeOTPs(ctx)
}

// TriggerRateRefresh runs the rate refresh job immediately
func (s *Scheduler) TriggerRateRefresh(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	if s.rates == nil {
		return ErrRateRefreshDisabled
	}
	return s.refreshRates(ctx)
}

func (s *Scheduler) runOTPPurge() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.config.JobTimeout)
	defer cancel()

	if err := s.purgeOTPs(ctx); err != nil {
		s.logger.Error("OTP purge failed", zap.Error(err))
	}
}

func (s *Scheduler) purgeOTPs(ctx context.Context) error {
	start := time.Now()
	deleted, err := s.otps.DeleteExpiredBefore(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	s.logger.Info("Expired OTP codes purged",
		zap.Int64("deleted", deleted),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (s *Scheduler) runRateRefresh() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.config.JobTimeout)
	defer cancel()

	if err := s.refreshRates(ctx); err != nil {
		s.logger.Error("Exchange rate refresh failed", zap.Error(err))
	}
}

func (s *Scheduler) refreshRates(ctx context.Context) error {
	bases, err := s.currencies.ActiveCurrencyCodes(ctx)
	if err != nil {
		return err
	}
	if len(bases) == 0 {
		s.logger.Debug("No active company currencies to refresh")
		return nil
	}

	start := time.Now()
	if err := s.rates.Refresh(ctx, bases); err != nil {
		return err
	}

	s.logger.Info("Exchange rates refreshed",
		zap.Strings("bases", bases),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}
