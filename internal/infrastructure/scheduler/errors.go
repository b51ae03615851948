package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when triggering a job on a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrRateRefreshDisabled is returned when no rate refresher is configured
	ErrRateRefreshDisabled = errors.New("exchange rate refresh is disabled")
)
