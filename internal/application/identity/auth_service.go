package identity

import (
	"context"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// Mailer delivers one-time passcodes and account notifications
type Mailer interface {
	SendOTP(ctx context.Context, email, code string, purpose identity.OTPPurpose) error
}

// CurrencyResolver maps a country name to its currency code
type CurrencyResolver interface {
	CurrencyForCountry(ctx context.Context, country string) (valueobject.Currency, error)
}

// AuthService handles signup, login and account recovery
type AuthService struct {
	userRepo    identity.UserRepository
	companyRepo identity.CompanyRepository
	otpRepo     identity.OTPRepository
	jwtService  *auth.JWTService
	blacklist   auth.TokenBlacklist
	mailer      Mailer
	currencies  CurrencyResolver
	eventBus    shared.EventPublisher
	config      AuthServiceConfig
	logger      *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	companyRepo identity.CompanyRepository,
	otpRepo identity.OTPRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	mailer Mailer,
	currencies CurrencyResolver,
	eventBus shared.EventPublisher,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		companyRepo: companyRepo,
		otpRepo:     otpRepo,
		jwtService:  jwtService,
		blacklist:   blacklist,
		mailer:      mailer,
		currencies:  currencies,
		eventBus:    eventBus,
		config:      config,
		logger:      logger,
	}
}

// Signup bootstraps a company and its admin account. The company's
// base currency is derived from the chosen country; the admin must
// verify their email with the mailed passcode before logging in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	s.logger.Info("Company signup attempt", zap.String("email", email), zap.String("company", input.CompanyName))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check email uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	}

	currency, err := s.currencies.CurrencyForCountry(ctx, input.Country)
	if err != nil {
		s.logger.Warn("Country currency lookup failed", zap.String("country", input.Country), zap.Error(err))
		return nil, shared.NewDomainError("UNKNOWN_COUNTRY", "Could not determine a currency for the given country")
	}

	company, err := identity.NewCompany(input.CompanyName, input.Country, currency)
	if err != nil {
		return nil, err
	}

	admin, err := identity.NewUser(company.ID, input.FirstName, input.LastName, email, input.Password, identity.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := s.companyRepo.CreateWithAdmin(ctx, company, admin); err != nil {
		s.logger.Error("Failed to persist company and admin", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create company")
	}

	otpSent := true
	if err := s.issueOTP(ctx, email, identity.OTPPurposeEmailVerify); err != nil {
		// Account creation stands; the user can request another code
		s.logger.Error("Failed to send verification code", zap.String("email", email), zap.Error(err))
		otpSent = false
	}

	s.publishEvents(ctx, company.GetDomainEvents())
	company.ClearDomainEvents()
	s.publishEvents(ctx, admin.GetDomainEvents())
	admin.ClearDomainEvents()

	s.logger.Info("Company signed up",
		zap.String("company_id", company.ID.String()),
		zap.String("admin_id", admin.ID.String()),
		zap.String("currency", string(currency)))

	return &SignupResult{
		CompanyID:    company.ID,
		UserID:       admin.ID,
		CurrencyCode: string(currency),
		OTPSent:      otpSent,
	}, nil
}

// Login authenticates a user and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	s.logger.Info("Login attempt", zap.String("email", email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Warn("User not found during login", zap.String("email", email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if !user.CanLogin() {
		if user.IsLocked() {
			s.logger.Warn("Login attempt for locked account", zap.String("email", email))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Please try again later or contact support")
		}
		if user.IsDeactivated() {
			s.logger.Warn("Login attempt for deactivated account", zap.String("email", email))
			return nil, shared.NewDomainError("ACCOUNT_DEACTIVATED", "Account has been deactivated")
		}
		if !user.EmailVerified {
			s.logger.Warn("Login attempt for unverified account", zap.String("email", email))
			return nil, shared.NewDomainError("EMAIL_UNVERIFIED", "Email address has not been verified")
		}
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	}

	if !user.VerifyPassword(input.Password) {
		locked := user.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("Failed to update user after login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("email", email),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}

		s.logger.Warn("Invalid password attempt",
			zap.String("email", email),
			zap.Int("failed_attempts", user.FailedAttempts))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		CompanyID: user.CompanyID,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      string(user.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	user.RecordLoginSuccess(input.IP)
	if err := s.userRepo.Update(ctx, user); err != nil {
		// Don't fail the login, just log it
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in",
		zap.String("email", email),
		zap.String("user_id", user.ID.String()))

	return &LoginResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
		User:                  NewUserInfo(user),
	}, nil
}

// VerifyEmail consumes a mailed passcode and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, input VerifyEmailInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	otp, err := s.otpRepo.FindLatest(ctx, email, identity.OTPPurposeEmailVerify)
	if err != nil {
		return shared.NewDomainError("OTP_NOT_FOUND", "No verification code found. Please request a new one")
	}

	verifyErr := otp.Verify(input.Code)
	if err := s.otpRepo.Update(ctx, otp); err != nil {
		s.logger.Error("Failed to persist passcode state", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to record verification attempt")
	}
	if verifyErr != nil {
		s.logger.Warn("Email verification failed", zap.String("email", email), zap.Error(verifyErr))
		return verifyErr
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.VerifyEmail(); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after verification", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to verify email")
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	s.logger.Info("Email verified", zap.String("email", email))
	return nil
}

// ResendOTP re-issues a passcode. A fresh code is throttled while the
// previous one still has most of its validity left.
func (s *AuthService) ResendOTP(ctx context.Context, input ResendOTPInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !input.Purpose.IsValid() {
		return shared.NewDomainError("INVALID_PURPOSE", "Unknown passcode purpose")
	}

	latest, err := s.otpRepo.FindLatest(ctx, email, input.Purpose)
	if err == nil && !latest.CanResend() {
		return identity.ErrOTPResendThrottled
	}

	return s.issueOTP(ctx, email, input.Purpose)
}

// ForgotPassword starts a password reset. It reports success even for
// unknown emails so account existence is not leaked.
func (s *AuthService) ForgotPassword(ctx context.Context, input ForgotPasswordInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if _, err := s.userRepo.FindByEmail(ctx, email); err != nil {
		s.logger.Info("Password reset requested for unknown email", zap.String("email", email))
		return nil
	}

	if err := s.issueOTP(ctx, email, identity.OTPPurposePasswordReset); err != nil {
		s.logger.Error("Failed to send reset code", zap.String("email", email), zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to send reset code")
	}
	return nil
}

// ResetPassword completes a password reset with a valid passcode and
// revokes the user's existing sessions.
func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) error {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	otp, err := s.otpRepo.FindLatest(ctx, email, identity.OTPPurposePasswordReset)
	if err != nil {
		return shared.NewDomainError("OTP_NOT_FOUND", "No reset code found. Please request a new one")
	}

	verifyErr := otp.Verify(input.Code)
	if err := s.otpRepo.Update(ctx, otp); err != nil {
		s.logger.Error("Failed to persist passcode state", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to record verification attempt")
	}
	if verifyErr != nil {
		return verifyErr
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.SetPassword(input.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update password", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	// Old sessions must not survive a reset
	if err := s.blacklist.AddUserTokensToBlacklist(ctx, user.ID.String(), s.jwtService.GetRefreshTokenExpiration()); err != nil {
		s.logger.Error("Failed to revoke sessions after reset", zap.Error(err))
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	s.logger.Info("Password reset completed", zap.String("email", email))
	return nil
}

// RefreshToken refreshes the access token using a valid refresh token
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*RefreshTokenResult, error) {
	refreshClaims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	userID, err := refreshClaims.GetUserUUID()
	if err != nil {
		s.logger.Error("Invalid user ID in refresh token", zap.Error(err))
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid user ID in token")
	}

	invalidated, err := s.blacklist.IsUserTokenInvalidated(ctx, userID.String(), refreshClaims.GetIssuedAtTime())
	if err != nil {
		s.logger.Error("Failed to check token revocation", zap.Error(err))
	}
	if invalidated {
		return nil, shared.NewDomainError("TOKEN_REVOKED", "Session has been revoked. Please log in again")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if !user.CanLogin() {
		s.logger.Warn("Token refresh for inactive user", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account is no longer active")
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, user.Email, string(user.Role))
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, mapTokenError(err)
	}

	s.logger.Info("Token refreshed", zap.String("user_id", userID.String()))

	return &RefreshTokenResult{
		AccessToken:           tokenPair.AccessToken,
		RefreshToken:          tokenPair.RefreshToken,
		AccessTokenExpiresAt:  tokenPair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: tokenPair.RefreshTokenExpiresAt,
		TokenType:             tokenPair.TokenType,
	}, nil
}

// Logout revokes the caller's access token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout",
		zap.String("user_id", input.UserID.String()),
		zap.String("company_id", input.CompanyID.String()))

	if input.TokenJTI == "" {
		return nil
	}
	ttl := input.TokenTTL
	if ttl <= 0 {
		ttl = s.jwtService.GetAccessTokenExpiration()
	}
	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, ttl); err != nil {
		s.logger.Error("Failed to blacklist token on logout", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to revoke session")
	}
	return nil
}

// ChangePassword changes a user's password with their old one
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	user, err := s.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user after password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to update password")
	}

	s.publishEvents(ctx, user.GetDomainEvents())
	user.ClearDomainEvents()

	s.logger.Info("User password changed", zap.String("user_id", input.UserID.String()))
	return nil
}

// issueOTP invalidates outstanding codes and mails a fresh one
func (s *AuthService) issueOTP(ctx context.Context, email string, purpose identity.OTPPurpose) error {
	if err := s.otpRepo.InvalidateAll(ctx, email, purpose); err != nil {
		return err
	}

	otp, err := identity.NewOTP(email, purpose)
	if err != nil {
		return err
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return err
	}

	return s.mailer.SendOTP(ctx, email, otp.Code, purpose)
}

func (s *AuthService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
}

// mapTokenError converts JWT errors into domain errors
func mapTokenError(err error) error {
	switch err {
	case auth.ErrExpiredToken:
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case auth.ErrInvalidToken:
		return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	case auth.ErrMaxRefreshExceeded:
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError("TOKEN_ERROR", "Failed to validate refresh token")
	}
}
