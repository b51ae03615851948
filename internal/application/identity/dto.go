package identity

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/google/uuid"
)

// SignupInput contains the input for company signup. The first signup
// bootstraps the company and its admin account in one step.
type SignupInput struct {
	CompanyName string
	Country     string
	FirstName   string
	LastName    string
	Email       string
	Password    string
}

// SignupResult contains the result of a successful signup
type SignupResult struct {
	CompanyID    uuid.UUID
	UserID       uuid.UUID
	CurrencyCode string
	// OTPSent reports whether a verification code was dispatched
	OTPSent bool
}

// LoginInput contains the input for user login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// LoginResult contains the result of a successful login
type LoginResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	User                  UserInfo
}

// UserInfo contains basic user information returned after login
type UserInfo struct {
	ID                uuid.UUID
	CompanyID         uuid.UUID
	FirstName         string
	LastName          string
	Email             string
	Role              identity.Role
	ManagerID         *uuid.UUID
	IsManagerApprover bool
	EmailVerified     bool
	Status            identity.UserStatus
}

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// RefreshTokenResult contains the result of a token refresh
type RefreshTokenResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for user logout
type LogoutInput struct {
	UserID    uuid.UUID
	CompanyID uuid.UUID
	TokenJTI  string        // Access token JTI to revoke
	TokenTTL  time.Duration // Remaining access token lifetime
}

// VerifyEmailInput contains the input for OTP email verification
type VerifyEmailInput struct {
	Email string
	Code  string
}

// ResendOTPInput contains the input for re-requesting a code
type ResendOTPInput struct {
	Email   string
	Purpose identity.OTPPurpose
}

// ForgotPasswordInput contains the input for starting a password reset
type ForgotPasswordInput struct {
	Email string
}

// ResetPasswordInput contains the input for completing a password reset
type ResetPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

// ChangePasswordInput contains the input for password change
type ChangePasswordInput struct {
	UserID      uuid.UUID
	OldPassword string
	NewPassword string
}

// CreateUserInput contains the input for an admin creating a user
type CreateUserInput struct {
	CompanyID uuid.UUID
	CreatedBy uuid.UUID
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      identity.Role
	ManagerID *uuid.UUID
}

// UpdateUserInput contains the input for profile updates
type UpdateUserInput struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	FirstName string
	LastName  string
}

// ChangeRoleInput contains the input for changing a user's role
type ChangeRoleInput struct {
	CompanyID uuid.UUID
	ActorID   uuid.UUID
	UserID    uuid.UUID
	NewRole   identity.Role
}

// AssignManagerInput contains the input for the manager relationship
type AssignManagerInput struct {
	CompanyID uuid.UUID
	UserID    uuid.UUID
	ManagerID *uuid.UUID // nil clears the relationship
}

// SetManagerApproverInput toggles whether a user's expenses require
// their manager's pre-approval.
type SetManagerApproverInput struct {
	CompanyID  uuid.UUID
	UserID     uuid.UUID
	IsApprover bool
}

// ListUsersInput contains the input for a user listing
type ListUsersInput struct {
	CompanyID uuid.UUID
	Keyword   string
	Role      *identity.Role
	Status    *identity.UserStatus
	ManagerID *uuid.UUID
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ListUsersResult contains a page of users
type ListUsersResult struct {
	Users      []UserInfo
	TotalCount int64
	Page       int
	PageSize   int
}

// CompanyInfo contains company details
type CompanyInfo struct {
	ID           uuid.UUID
	Name         string
	Country      string
	CurrencyCode string
	Status       identity.CompanyStatus
	CreatedAt    time.Time
}

// UpdateCompanyInput contains the input for renaming a company
type UpdateCompanyInput struct {
	CompanyID uuid.UUID
	Name      string
}

// NewUserInfo maps a domain user to its transport form
func NewUserInfo(user *identity.User) UserInfo {
	return UserInfo{
		ID:                user.ID,
		CompanyID:         user.CompanyID,
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Email:             user.Email,
		Role:              user.Role,
		ManagerID:         user.ManagerID,
		IsManagerApprover: user.IsManagerApprover,
		EmailVerified:     user.EmailVerified,
		Status:            user.Status,
	}
}

// NewCompanyInfo maps a domain company to its transport form
func NewCompanyInfo(company *identity.Company) CompanyInfo {
	return CompanyInfo{
		ID:           company.ID,
		Name:         company.Name,
		Country:      company.Country,
		CurrencyCode: string(company.CurrencyCode),
		Status:       company.Status,
		CreatedAt:    company.CreatedAt,
	}
}
