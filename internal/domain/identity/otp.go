package identity

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/shared"
)

// OTPPurpose says what a one-time passcode unlocks
type OTPPurpose string

const (
	OTPPurposeEmailVerify   OTPPurpose = "EMAIL_VERIFY"
	OTPPurposePasswordReset OTPPurpose = "PASSWORD_RESET"
)

// IsValid returns true if the purpose is known
func (p OTPPurpose) IsValid() bool {
	return p == OTPPurposeEmailVerify || p == OTPPurposePasswordReset
}

const (
	otpLength      = 6
	otpValidity    = 10 * time.Minute
	otpMaxAttempts = 5

	// A fresh code can only be re-sent once the previous one has less
	// than this much validity left.
	otpResendWindow = 8 * time.Minute
)

// OTP verification errors
var (
	ErrOTPExpired         = shared.NewDomainError("OTP_EXPIRED", "Verification code has expired")
	ErrOTPConsumed        = shared.NewDomainError("OTP_CONSUMED", "Verification code has already been used")
	ErrOTPInvalidated     = shared.NewDomainError("OTP_INVALIDATED", "Verification code is no longer valid")
	ErrOTPMismatch        = shared.NewDomainError("OTP_MISMATCH", "Incorrect verification code")
	ErrOTPTooManyAttempts = shared.NewDomainError("OTP_TOO_MANY_ATTEMPTS", "Too many failed attempts, request a new code")
	ErrOTPResendThrottled = shared.NewDomainError("OTP_RESEND_THROTTLED", "A code was sent recently, wait before requesting another")
)

// OTP is a one-time passcode mailed to a user to verify their email or
// reset their password.
type OTP struct {
	shared.BaseEntity
	Email       string
	Code        string
	Purpose     OTPPurpose
	ExpiresAt   time.Time
	Attempts    int
	Consumed    bool
	Invalidated bool
}

// NewOTP creates a new passcode for the given email and purpose
func NewOTP(email string, purpose OTPPurpose) (*OTP, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if !purpose.IsValid() {
		return nil, shared.NewDomainError("INVALID_OTP_PURPOSE", "Unknown OTP purpose")
	}

	code, err := generateOTPCode(otpLength)
	if err != nil {
		return nil, shared.NewDomainError("OTP_GENERATION_FAILED", "Failed to generate verification code")
	}

	entity := shared.NewBaseEntity()
	return &OTP{
		BaseEntity: entity,
		Email:      email,
		Code:       code,
		Purpose:    purpose,
		ExpiresAt:  entity.CreatedAt.Add(otpValidity),
	}, nil
}

// Verify checks the submitted code against this passcode. Each failed
// comparison counts against the attempt budget.
func (o *OTP) Verify(code string) error {
	if o.Consumed {
		return ErrOTPConsumed
	}
	if o.Invalidated {
		return ErrOTPInvalidated
	}
	if o.IsExpired() {
		return ErrOTPExpired
	}
	if o.Attempts >= otpMaxAttempts {
		return ErrOTPTooManyAttempts
	}

	if o.Code != strings.TrimSpace(code) {
		o.Attempts++
		o.UpdatedAt = time.Now()
		if o.Attempts >= otpMaxAttempts {
			return ErrOTPTooManyAttempts
		}
		return ErrOTPMismatch
	}

	o.Consumed = true
	o.UpdatedAt = time.Now()
	return nil
}

// Invalidate marks the passcode unusable, typically because a newer
// one was issued for the same email and purpose.
func (o *OTP) Invalidate() {
	o.Invalidated = true
	o.UpdatedAt = time.Now()
}

// IsExpired returns true if the validity window has passed
func (o *OTP) IsExpired() bool {
	return time.Now().After(o.ExpiresAt)
}

// CanResend returns true once the passcode is old enough that issuing
// a replacement is allowed
func (o *OTP) CanResend() bool {
	if o.Consumed || o.Invalidated || o.IsExpired() {
		return true
	}
	return time.Until(o.ExpiresAt) < otpResendWindow
}

func generateOTPCode(length int) (string, error) {
	var sb strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%d", n.Int64())
	}
	return sb.String(), nil
}
