package handler

import (
	"context"
	"io"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/auth"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/config"
	"github.com/Jay1425/ExpensoX/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// testJWTService returns a JWT service with a fixed test configuration
func testJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-32-characters-long",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        10,
	})
}

// authContext simulates a request that already passed the JWT
// middleware, without issuing a real token
func authContext(companyID, userID uuid.UUID, role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			UserID:    userID.String(),
			CompanyID: companyID.String(),
			Role:      string(role),
		})
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Set(middleware.JWTCompanyIDKey, companyID.String())
		c.Set(middleware.JWTRoleKey, string(role))
		c.Next()
	}
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter identity.UserFilter) ([]*identity.User, int64, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]*identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) FindReports(ctx context.Context, companyID, managerID uuid.UUID) ([]*identity.User, error) {
	args := m.Called(ctx, companyID, managerID)
	return args.Get(0).([]*identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context, companyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCompanyRepository is a mock implementation of identity.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) Create(ctx context.Context, company *identity.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) CreateWithAdmin(ctx context.Context, company *identity.Company, admin *identity.User) error {
	args := m.Called(ctx, company, admin)
	return args.Error(0)
}

func (m *MockCompanyRepository) Update(ctx context.Context, company *identity.Company) error {
	args := m.Called(ctx, company)
	return args.Error(0)
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context, page, pageSize int) ([]*identity.Company, int64, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).([]*identity.Company), args.Get(1).(int64), args.Error(2)
}

func (m *MockCompanyRepository) ActiveCurrencyCodes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

// MockOTPRepository is a mock implementation of identity.OTPRepository
type MockOTPRepository struct {
	mock.Mock
}

func (m *MockOTPRepository) Create(ctx context.Context, otp *identity.OTP) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *MockOTPRepository) Update(ctx context.Context, otp *identity.OTP) error {
	args := m.Called(ctx, otp)
	return args.Error(0)
}

func (m *MockOTPRepository) FindLatest(ctx context.Context, email string, purpose identity.OTPPurpose) (*identity.OTP, error) {
	args := m.Called(ctx, email, purpose)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.OTP), args.Error(1)
}

func (m *MockOTPRepository) InvalidateAll(ctx context.Context, email string, purpose identity.OTPPurpose) error {
	args := m.Called(ctx, email, purpose)
	return args.Error(0)
}

func (m *MockOTPRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockExpenseRepository is a mock implementation of expense.Repository
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*expense.Expense, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter expense.Filter) ([]*expense.Expense, int64, error) {
	args := m.Called(ctx, companyID, filter)
	return args.Get(0).([]*expense.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseRepository) FindPendingForApprover(ctx context.Context, companyID, approverID uuid.UUID, filter expense.Filter) ([]*expense.Expense, int64, error) {
	args := m.Called(ctx, companyID, approverID, filter)
	return args.Get(0).([]*expense.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseRepository) CountForMonth(ctx context.Context, companyID uuid.UUID, year int, month time.Month) (int64, error) {
	args := m.Called(ctx, companyID, year, month)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) CountActiveByFlow(ctx context.Context, companyID, flowID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID, flowID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExpenseRepository) SumByCategory(ctx context.Context, companyID uuid.UUID, ownerID *uuid.UUID, from, to time.Time, statuses []expense.Status) ([]expense.CategoryTotal, error) {
	args := m.Called(ctx, companyID, ownerID, from, to, statuses)
	return args.Get(0).([]expense.CategoryTotal), args.Error(1)
}

// MockFlowRepository is a mock implementation of approval.FlowRepository
type MockFlowRepository struct {
	mock.Mock
}

func (m *MockFlowRepository) Create(ctx context.Context, flow *approval.Flow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

func (m *MockFlowRepository) Update(ctx context.Context, flow *approval.Flow) error {
	args := m.Called(ctx, flow)
	return args.Error(0)
}

func (m *MockFlowRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

func (m *MockFlowRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*approval.Flow, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*approval.Flow), args.Error(1)
}

func (m *MockFlowRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]*approval.Flow, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*approval.Flow), args.Error(1)
}

func (m *MockFlowRepository) FindDefault(ctx context.Context, companyID uuid.UUID) (*approval.Flow, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*approval.Flow), args.Error(1)
}

func (m *MockFlowRepository) ClearDefault(ctx context.Context, companyID uuid.UUID) error {
	args := m.Called(ctx, companyID)
	return args.Error(0)
}

// MockRuleRepository is a mock implementation of approval.RuleRepository
type MockRuleRepository struct {
	mock.Mock
}

func (m *MockRuleRepository) Create(ctx context.Context, rule *approval.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Update(ctx context.Context, rule *approval.Rule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

func (m *MockRuleRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*approval.Rule, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*approval.Rule), args.Error(1)
}

func (m *MockRuleRepository) FindByFlow(ctx context.Context, companyID, flowID uuid.UUID) ([]*approval.Rule, error) {
	args := m.Called(ctx, companyID, flowID)
	return args.Get(0).([]*approval.Rule), args.Error(1)
}

// MockDecisionRepository is a mock implementation of approval.DecisionRepository
type MockDecisionRepository struct {
	mock.Mock
}

func (m *MockDecisionRepository) Create(ctx context.Context, decision *approval.Decision) error {
	args := m.Called(ctx, decision)
	return args.Error(0)
}

func (m *MockDecisionRepository) FindByExpense(ctx context.Context, companyID, expenseID uuid.UUID) ([]*approval.Decision, error) {
	args := m.Called(ctx, companyID, expenseID)
	return args.Get(0).([]*approval.Decision), args.Error(1)
}

func (m *MockDecisionRepository) HasDecisionAtStep(ctx context.Context, expenseID, approverID uuid.UUID, stepNumber int) (bool, error) {
	args := m.Called(ctx, expenseID, approverID, stepNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockDecisionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRateProvider is a mock implementation of the exchange rate lookup
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockReceiptStorage is a mock implementation of receipt object storage
type MockReceiptStorage struct {
	mock.Mock
}

func (m *MockReceiptStorage) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	args := m.Called(ctx, key, contentType, body, size)
	return args.Error(0)
}

func (m *MockReceiptStorage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}

// MockMailer is a mock implementation of OTP mail delivery
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendOTP(ctx context.Context, email, code string, purpose identity.OTPPurpose) error {
	args := m.Called(ctx, email, code, purpose)
	return args.Error(0)
}

// MockCurrencyResolver is a mock implementation of country-to-currency lookup
type MockCurrencyResolver struct {
	mock.Mock
}

func (m *MockCurrencyResolver) CurrencyForCountry(ctx context.Context, country string) (valueobject.Currency, error) {
	args := m.Called(ctx, country)
	return args.Get(0).(valueobject.Currency), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
