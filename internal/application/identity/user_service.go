package identity

import (
	"context"
	"strings"

	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserService handles employee administration. All operations are
// scoped to the caller's company.
type UserService struct {
	userRepo identity.UserRepository
	otpRepo  identity.OTPRepository
	mailer   Mailer
	eventBus shared.EventPublisher
	logger   *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo identity.UserRepository,
	otpRepo identity.OTPRepository,
	mailer Mailer,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		otpRepo:  otpRepo,
		mailer:   mailer,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CreateUser creates an employee or manager account. The new account
// gets a verification passcode mailed to it.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*UserInfo, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Failed to check email uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to check email availability")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")
	}

	user, err := identity.NewUser(input.CompanyID, input.FirstName, input.LastName, email, input.Password, input.Role)
	if err != nil {
		return nil, err
	}
	user.SetCreatedBy(input.CreatedBy)

	if input.ManagerID != nil {
		manager, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, *input.ManagerID)
		if err != nil {
			return nil, shared.NewDomainError("MANAGER_NOT_FOUND", "Manager not found in this company")
		}
		if !manager.Role.CanApprove() {
			return nil, shared.NewDomainError("INVALID_MANAGER", "A manager must hold the MANAGER or ADMIN role")
		}
		if err := user.AssignManager(manager.ID); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.Error("Failed to persist user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create user")
	}

	if err := s.sendVerificationCode(ctx, email); err != nil {
		s.logger.Error("Failed to send verification code", zap.String("email", email), zap.Error(err))
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User created",
		zap.String("user_id", user.ID.String()),
		zap.String("email", email),
		zap.String("role", string(user.Role)))

	info := NewUserInfo(user)
	return &info, nil
}

// GetUser returns a single user in the company
func (s *UserService) GetUser(ctx context.Context, companyID, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByIDForCompany(ctx, companyID, userID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	info := NewUserInfo(user)
	return &info, nil
}

// ListUsers returns a filtered page of the company's users
func (s *UserService) ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error) {
	filter := identity.NewUserFilter()
	if input.Keyword != "" {
		filter = filter.WithKeyword(input.Keyword)
	}
	if input.Role != nil {
		filter = filter.WithRole(*input.Role)
	}
	if input.Status != nil {
		filter = filter.WithStatus(*input.Status)
	}
	if input.ManagerID != nil {
		filter = filter.WithManager(*input.ManagerID)
	}
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if input.SortBy != "" {
		filter.SortBy = input.SortBy
	}
	if input.SortOrder != "" {
		filter.SortOrder = input.SortOrder
	}

	users, total, err := s.userRepo.FindAll(ctx, input.CompanyID, filter)
	if err != nil {
		s.logger.Error("Failed to list users", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list users")
	}

	infos := make([]UserInfo, len(users))
	for i, u := range users {
		infos[i] = NewUserInfo(u)
	}

	return &ListUsersResult{
		Users:      infos,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// ListReports returns the users reporting to a manager
func (s *UserService) ListReports(ctx context.Context, companyID, managerID uuid.UUID) ([]UserInfo, error) {
	reports, err := s.userRepo.FindReports(ctx, companyID, managerID)
	if err != nil {
		s.logger.Error("Failed to list reports", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list reports")
	}

	infos := make([]UserInfo, len(reports))
	for i, u := range reports {
		infos[i] = NewUserInfo(u)
	}
	return infos, nil
}

// UpdateProfile updates a user's name
func (s *UserService) UpdateProfile(ctx context.Context, input UpdateUserInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.UpdateProfile(input.FirstName, input.LastName); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update user")
	}

	info := NewUserInfo(user)
	return &info, nil
}

// ChangeRole changes a user's role. Admins cannot demote themselves so
// a company always keeps at least one admin.
func (s *UserService) ChangeRole(ctx context.Context, input ChangeRoleInput) (*UserInfo, error) {
	if input.ActorID == input.UserID {
		return nil, shared.NewDomainError("FORBIDDEN", "You cannot change your own role")
	}

	user, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.ChangeRole(input.NewRole); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user role", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to change role")
	}

	s.publishEvents(ctx, user)

	s.logger.Info("User role changed",
		zap.String("user_id", user.ID.String()),
		zap.String("new_role", string(input.NewRole)))

	info := NewUserInfo(user)
	return &info, nil
}

// AssignManager sets or clears a user's reporting manager
func (s *UserService) AssignManager(ctx context.Context, input AssignManagerInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if input.ManagerID == nil {
		user.UnassignManager()
	} else {
		manager, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, *input.ManagerID)
		if err != nil {
			return nil, shared.NewDomainError("MANAGER_NOT_FOUND", "Manager not found in this company")
		}
		if !manager.Role.CanApprove() {
			return nil, shared.NewDomainError("INVALID_MANAGER", "A manager must hold the MANAGER or ADMIN role")
		}
		if err := user.AssignManager(manager.ID); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update user manager", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to assign manager")
	}

	s.publishEvents(ctx, user)

	info := NewUserInfo(user)
	return &info, nil
}

// SetManagerApprover toggles manager pre-approval for a user's expenses
func (s *UserService) SetManagerApprover(ctx context.Context, input SetManagerApproverInput) (*UserInfo, error) {
	user, err := s.userRepo.FindByIDForCompany(ctx, input.CompanyID, input.UserID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.SetManagerApprover(input.IsApprover); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to update approver flag", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update approver flag")
	}

	info := NewUserInfo(user)
	return &info, nil
}

// DeactivateUser disables an account. The actor cannot deactivate
// themselves.
func (s *UserService) DeactivateUser(ctx context.Context, companyID, actorID, userID uuid.UUID) error {
	if actorID == userID {
		return shared.NewDomainError("FORBIDDEN", "You cannot deactivate your own account")
	}

	user, err := s.userRepo.FindByIDForCompany(ctx, companyID, userID)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.Deactivate(); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to deactivate user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to deactivate user")
	}

	s.publishEvents(ctx, user)
	s.logger.Info("User deactivated", zap.String("user_id", userID.String()))
	return nil
}

// ActivateUser re-enables a deactivated account
func (s *UserService) ActivateUser(ctx context.Context, companyID, userID uuid.UUID) error {
	user, err := s.userRepo.FindByIDForCompany(ctx, companyID, userID)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.Activate(); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to activate user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to activate user")
	}

	s.publishEvents(ctx, user)
	return nil
}

// UnlockUser clears a login lockout before it expires on its own
func (s *UserService) UnlockUser(ctx context.Context, companyID, userID uuid.UUID) error {
	user, err := s.userRepo.FindByIDForCompany(ctx, companyID, userID)
	if err != nil {
		return shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}

	if err := user.Unlock(); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.logger.Error("Failed to unlock user", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to unlock user")
	}

	s.logger.Info("User unlocked", zap.String("user_id", userID.String()))
	return nil
}

func (s *UserService) sendVerificationCode(ctx context.Context, email string) error {
	if err := s.otpRepo.InvalidateAll(ctx, email, identity.OTPPurposeEmailVerify); err != nil {
		return err
	}
	otp, err := identity.NewOTP(email, identity.OTPPurposeEmailVerify)
	if err != nil {
		return err
	}
	if err := s.otpRepo.Create(ctx, otp); err != nil {
		return err
	}
	return s.mailer.SendOTP(ctx, email, otp.Code, identity.OTPPurposeEmailVerify)
}

func (s *UserService) publishEvents(ctx context.Context, user *identity.User) {
	events := user.GetDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	user.ClearDomainEvents()
}
