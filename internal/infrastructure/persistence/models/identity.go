package models

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CompanyModel is the persistence model for the Company aggregate
type CompanyModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null"`
	Country      string `gorm:"type:varchar(100);not null"`
	CurrencyCode string `gorm:"type:varchar(3);not null"`
	Status       string `gorm:"type:varchar(20);not null;default:'active';index"`
}

// TableName returns the table name for GORM
func (CompanyModel) TableName() string {
	return "companies"
}

// ToDomain converts the persistence model to a domain Company
func (m *CompanyModel) ToDomain() *identity.Company {
	company := &identity.Company{
		Name:         m.Name,
		Country:      m.Country,
		CurrencyCode: valueobject.Currency(m.CurrencyCode),
		Status:       identity.CompanyStatus(m.Status),
	}
	m.PopulateAggregateRoot(&company.BaseAggregateRoot)
	return company
}

// CompanyModelFromDomain creates a persistence model from a domain Company
func CompanyModelFromDomain(c *identity.Company) *CompanyModel {
	m := &CompanyModel{
		Name:         c.Name,
		Country:      c.Country,
		CurrencyCode: string(c.CurrencyCode),
		Status:       string(c.Status),
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	CompanyAggregateModel
	FirstName         string     `gorm:"type:varchar(100);not null"`
	LastName          string     `gorm:"type:varchar(100);not null"`
	Email             string     `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash      string     `gorm:"type:varchar(255);not null"`
	Role              string     `gorm:"type:varchar(20);not null;index"`
	ManagerID         *uuid.UUID `gorm:"type:uuid;index"`
	IsManagerApprover bool       `gorm:"not null;default:false"`
	EmailVerified     bool       `gorm:"not null;default:false"`
	Status            string     `gorm:"type:varchar(20);not null;index"`
	LastLoginAt       *time.Time
	LastLoginIP       string `gorm:"type:varchar(45)"`
	FailedAttempts    int    `gorm:"not null;default:0"`
	LockedUntil       *time.Time
	PasswordChangedAt *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	user := &identity.User{
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              identity.Role(m.Role),
		ManagerID:         m.ManagerID,
		IsManagerApprover: m.IsManagerApprover,
		EmailVerified:     m.EmailVerified,
		Status:            identity.UserStatus(m.Status),
		LastLoginAt:       m.LastLoginAt,
		LastLoginIP:       m.LastLoginIP,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
		PasswordChangedAt: m.PasswordChangedAt,
	}
	m.PopulateCompanyAggregateRoot(&user.CompanyAggregateRoot)
	return user
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		ManagerID:         u.ManagerID,
		IsManagerApprover: u.IsManagerApprover,
		EmailVerified:     u.EmailVerified,
		Status:            string(u.Status),
		LastLoginAt:       u.LastLoginAt,
		LastLoginIP:       u.LastLoginIP,
		FailedAttempts:    u.FailedAttempts,
		LockedUntil:       u.LockedUntil,
		PasswordChangedAt: u.PasswordChangedAt,
	}
	m.FromDomainCompanyAggregateRoot(u.CompanyAggregateRoot)
	return m
}

// OTPModel is the persistence model for one-time passcodes
type OTPModel struct {
	BaseModel
	Email       string    `gorm:"type:varchar(200);not null;index:idx_otps_email_purpose"`
	Code        string    `gorm:"type:varchar(12);not null"`
	Purpose     string    `gorm:"type:varchar(30);not null;index:idx_otps_email_purpose"`
	ExpiresAt   time.Time `gorm:"not null;index"`
	Attempts    int       `gorm:"not null;default:0"`
	Consumed    bool      `gorm:"not null;default:false"`
	Invalidated bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (OTPModel) TableName() string {
	return "otps"
}

// ToDomain converts the persistence model to a domain OTP
func (m *OTPModel) ToDomain() *identity.OTP {
	return &identity.OTP{
		BaseEntity:  m.BaseModel.ToDomain(),
		Email:       m.Email,
		Code:        m.Code,
		Purpose:     identity.OTPPurpose(m.Purpose),
		ExpiresAt:   m.ExpiresAt,
		Attempts:    m.Attempts,
		Consumed:    m.Consumed,
		Invalidated: m.Invalidated,
	}
}

// OTPModelFromDomain creates a persistence model from a domain OTP
func OTPModelFromDomain(o *identity.OTP) *OTPModel {
	m := &OTPModel{
		Email:       o.Email,
		Code:        o.Code,
		Purpose:     string(o.Purpose),
		ExpiresAt:   o.ExpiresAt,
		Attempts:    o.Attempts,
		Consumed:    o.Consumed,
		Invalidated: o.Invalidated,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}
