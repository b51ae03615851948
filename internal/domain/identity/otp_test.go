package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTP(t *testing.T) {
	t.Run("creates six digit code with ten minute validity", func(t *testing.T) {
		otp, err := NewOTP("Ada@Example.com", OTPPurposeEmailVerify)

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", otp.Email)
		assert.Len(t, otp.Code, 6)
		assert.Regexp(t, `^[0-9]{6}$`, otp.Code)
		assert.WithinDuration(t, otp.CreatedAt.Add(10*time.Minute), otp.ExpiresAt, time.Second)
		assert.False(t, otp.Consumed)
	})

	t.Run("rejects empty email", func(t *testing.T) {
		_, err := NewOTP("", OTPPurposeEmailVerify)
		assert.Error(t, err)
	})

	t.Run("rejects unknown purpose", func(t *testing.T) {
		_, err := NewOTP("ada@example.com", OTPPurpose("LOGIN"))
		assert.Error(t, err)
	})
}

func TestOTP_Verify(t *testing.T) {
	t.Run("correct code consumes the passcode", func(t *testing.T) {
		otp, err := NewOTP("ada@example.com", OTPPurposeEmailVerify)
		require.NoError(t, err)

		require.NoError(t, otp.Verify(otp.Code))
		assert.True(t, otp.Consumed)

		assert.ErrorIs(t, otp.Verify(otp.Code), ErrOTPConsumed)
	})

	t.Run("wrong code counts an attempt", func(t *testing.T) {
		otp, err := NewOTP("ada@example.com", OTPPurposeEmailVerify)
		require.NoError(t, err)

		assert.ErrorIs(t, otp.Verify("000000x"), ErrOTPMismatch)
		assert.Equal(t, 1, otp.Attempts)
	})

	t.Run("locks out after five failed attempts", func(t *testing.T) {
		otp, err := NewOTP("ada@example.com", OTPPurposeEmailVerify)
		require.NoError(t, err)

		wrong := "wrong0"
		for i := 0; i < 4; i++ {
			assert.ErrorIs(t, otp.Verify(wrong), ErrOTPMismatch)
		}
		assert.ErrorIs(t, otp.Verify(wrong), ErrOTPTooManyAttempts)

		// The correct code no longer works
		assert.ErrorIs(t, otp.Verify(otp.Code), ErrOTPTooManyAttempts)
	})

	t.Run("expired code is rejected", func(t *testing.T) {
		otp, err := NewOTP("ada@example.com", OTPPurposePasswordReset)
		require.NoError(t, err)
		otp.ExpiresAt = time.Now().Add(-time.Second)

		assert.ErrorIs(t, otp.Verify(otp.Code), ErrOTPExpired)
	})

	t.Run("invalidated code is rejected", func(t *testing.T) {
		otp, err := NewOTP("ada@example.com", OTPPurposeEmailVerify)
		require.NoError(t, err)
		otp.Invalidate()

		assert.ErrorIs(t, otp.Verify(otp.Code), ErrOTPInvalidated)
	})
}

func TestOTP_CanResend(t *testing.T) {
	otp, err := NewOTP("ada@example.com", OTPPurposeEmailVerify)
	require.NoError(t, err)

	t.Run("fresh code throttles resend", func(t *testing.T) {
		assert.False(t, otp.CanResend())
	})

	t.Run("aged code allows resend", func(t *testing.T) {
		otp.ExpiresAt = time.Now().Add(7 * time.Minute)
		assert.True(t, otp.CanResend())
	})

	t.Run("consumed code always allows resend", func(t *testing.T) {
		fresh, err := NewOTP("ada@example.com", OTPPurposeEmailVerify)
		require.NoError(t, err)
		require.NoError(t, fresh.Verify(fresh.Code))
		assert.True(t, fresh.CanResend())
	})
}
