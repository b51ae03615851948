package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOTPRepository implements identity.OTPRepository using GORM
type GormOTPRepository struct {
	db *gorm.DB
}

// NewGormOTPRepository creates a new GormOTPRepository
func NewGormOTPRepository(db *gorm.DB) *GormOTPRepository {
	return &GormOTPRepository{db: db}
}

// Create stores a new passcode
func (r *GormOTPRepository) Create(ctx context.Context, otp *identity.OTP) error {
	model := models.OTPModelFromDomain(otp)
	return r.db.WithContext(ctx).Create(model).Error
}

// Update persists verification state changes
func (r *GormOTPRepository) Update(ctx context.Context, otp *identity.OTP) error {
	model := models.OTPModelFromDomain(otp)
	result := r.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindLatest returns the most recently issued passcode for an email
// and purpose, consumed or not
func (r *GormOTPRepository) FindLatest(ctx context.Context, email string, purpose identity.OTPPurpose) (*identity.OTP, error) {
	var model models.OTPModel
	if err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? AND purpose = ?", strings.ToLower(email), string(purpose)).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// InvalidateAll marks every live passcode for an email and purpose as invalidated
func (r *GormOTPRepository) InvalidateAll(ctx context.Context, email string, purpose identity.OTPPurpose) error {
	return r.db.WithContext(ctx).
		Model(&models.OTPModel{}).
		Where("LOWER(email) = ? AND purpose = ? AND consumed = ? AND invalidated = ?",
			strings.ToLower(email), string(purpose), false, false).
		Update("invalidated", true).Error
}

// DeleteExpiredBefore removes passcodes that expired before the cutoff
func (r *GormOTPRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.OTPModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// Ensure GormOTPRepository implements OTPRepository
var _ identity.OTPRepository = (*GormOTPRepository)(nil)
