package identity

import (
	"context"
	"time"
)

// OTPRepository defines the interface for one-time passcode persistence
type OTPRepository interface {
	// Create stores a new passcode
	Create(ctx context.Context, otp *OTP) error

	// Update persists verification state changes
	Update(ctx context.Context, otp *OTP) error

	// FindLatest returns the most recently issued passcode for an
	// email and purpose, consumed or not
	FindLatest(ctx context.Context, email string, purpose OTPPurpose) (*OTP, error)

	// InvalidateAll marks every live passcode for an email and purpose
	// as invalidated
	InvalidateAll(ctx context.Context, email string, purpose OTPPurpose) error

	// DeleteExpiredBefore removes passcodes that expired before the
	// cutoff, returning the number deleted
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
