package expense

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

// MockBudgetRepository is a mock implementation of expense.BudgetRepository
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) Create(ctx context.Context, b *expense.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBudgetRepository) Update(ctx context.Context, b *expense.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBudgetRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	args := m.Called(ctx, companyID, id)
	return args.Error(0)
}

func (m *MockBudgetRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*expense.Budget, error) {
	args := m.Called(ctx, companyID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindAllForCompany(ctx context.Context, companyID uuid.UUID) ([]*expense.Budget, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).([]*expense.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindActiveAt(ctx context.Context, companyID uuid.UUID, at time.Time) ([]*expense.Budget, error) {
	args := m.Called(ctx, companyID, at)
	return args.Get(0).([]*expense.Budget), args.Error(1)
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

// MockRateProvider is a mock implementation of RateProvider
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockReceiptStorage is a mock implementation of ReceiptStorage
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

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type expenseFixture struct {
	expenseRepo *MockExpenseRepository
	userRepo    *MockUserRepository
	companyRepo *MockCompanyRepository
	flowRepo    *MockFlowRepository
	rates       *MockRateProvider
	receipts    *MockReceiptStorage
	eventBus    *MockEventPublisher
	service     *Service
}

func newExpenseFixture() *expenseFixture {
	f := &expenseFixture{
		expenseRepo: new(MockExpenseRepository),
		userRepo:    new(MockUserRepository),
		companyRepo: new(MockCompanyRepository),
		flowRepo:    new(MockFlowRepository),
		rates:       new(MockRateProvider),
		receipts:    new(MockReceiptStorage),
		eventBus:    new(MockEventPublisher),
	}
	f.eventBus.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.service = NewService(
		f.expenseRepo, f.userRepo, f.companyRepo, f.flowRepo,
		f.rates, f.receipts, f.eventBus, zap.NewNop(),
	)
	return f
}

func mustMoney(t *testing.T, amount string, currency string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoneyFromString(amount, valueobject.Currency(currency))
	require.NoError(t, err)
	return m
}

func draftExpense(t *testing.T, companyID, ownerID uuid.UUID, amount, currency string) *expense.Expense {
	t.Helper()
	e, err := expense.NewExpense(
		companyID, ownerID, "EXP-202608-0001",
		expense.CategoryMeals, mustMoney(t, amount, currency),
		"Client dinner", time.Now().Add(-24*time.Hour),
	)
	require.NoError(t, err)
	e.ClearDomainEvents()
	return e
}

func testCompany(t *testing.T, currency string) *identity.Company {
	t.Helper()
	company, err := identity.NewCompany("Acme Corp", "India", valueobject.Currency(currency))
	require.NoError(t, err)
	company.ClearDomainEvents()
	return company
}

func testFlow(t *testing.T, companyID uuid.UUID, approvers ...uuid.UUID) *approval.Flow {
	t.Helper()
	steps := make([]approval.Step, len(approvers))
	for i, id := range approvers {
		steps[i] = approval.Step{StepNumber: i + 1, ApproverID: id}
	}
	flow, err := approval.NewFlow(companyID, uuid.New(), "Finance review", steps)
	require.NoError(t, err)
	return flow
}

func assertDomainErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	assert.Equal(t, code, domainErr.Code)
}

func TestService_CreateDraft_NumbersSequentially(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()

	now := time.Now().UTC()
	f.expenseRepo.On("CountForMonth", ctx, companyID, now.Year(), now.Month()).Return(int64(41), nil)
	f.expenseRepo.On("Create", ctx, mock.AnythingOfType("*expense.Expense")).Return(nil)

	info, err := f.service.CreateDraft(ctx, CreateExpenseInput{
		CompanyID:   companyID,
		OwnerID:     ownerID,
		Category:    expense.CategoryTravel,
		Amount:      decimal.RequireFromString("149.90"),
		Currency:    "usd",
		Description: "Flight to client site",
		SpentAt:     now.Add(-48 * time.Hour),
	})

	require.NoError(t, err)
	assert.Equal(t, expense.StatusDraft, info.Status)
	assert.True(t, strings.HasPrefix(info.ExpenseNumber, "EXP-"), info.ExpenseNumber)
	assert.True(t, strings.HasSuffix(info.ExpenseNumber, "-0042"), info.ExpenseNumber)
	// Lowercase currency input is normalized
	assert.Equal(t, valueobject.Currency("USD"), info.OriginalAmount.Currency())
	f.expenseRepo.AssertExpectations(t)
}

func TestService_CreateDraft_RetriesOnNumberCollision(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()

	now := time.Now().UTC()
	// A concurrent draft already took 0042; the re-count sees it
	f.expenseRepo.On("CountForMonth", ctx, companyID, now.Year(), now.Month()).Return(int64(41), nil).Once()
	f.expenseRepo.On("CountForMonth", ctx, companyID, now.Year(), now.Month()).Return(int64(42), nil).Once()
	f.expenseRepo.On("Create", ctx, mock.MatchedBy(func(e *expense.Expense) bool {
		return strings.HasSuffix(e.ExpenseNumber, "-0042")
	})).Return(shared.ErrAlreadyExists).Once()
	f.expenseRepo.On("Create", ctx, mock.MatchedBy(func(e *expense.Expense) bool {
		return strings.HasSuffix(e.ExpenseNumber, "-0043")
	})).Return(nil).Once()

	info, err := f.service.CreateDraft(ctx, CreateExpenseInput{
		CompanyID:   companyID,
		OwnerID:     uuid.New(),
		Category:    expense.CategoryMeals,
		Amount:      decimal.RequireFromString("18.20"),
		Currency:    "USD",
		Description: "Team lunch",
		SpentAt:     now.Add(-time.Hour),
	})

	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(info.ExpenseNumber, "-0043"), info.ExpenseNumber)
	f.expenseRepo.AssertExpectations(t)
}

func TestService_CreateDraft_InvalidCategory(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()

	now := time.Now().UTC()
	f.expenseRepo.On("CountForMonth", ctx, companyID, now.Year(), now.Month()).Return(int64(0), nil)

	info, err := f.service.CreateDraft(ctx, CreateExpenseInput{
		CompanyID:   companyID,
		OwnerID:     uuid.New(),
		Category:    "GAMBLING",
		Amount:      decimal.RequireFromString("10"),
		Currency:    "USD",
		Description: "Casino chips",
		SpentAt:     now.Add(-time.Hour),
	})

	require.Error(t, err)
	assert.Nil(t, info)
	assertDomainErrorCode(t, err, "INVALID_CATEGORY")
}

func TestService_UpdateDraft_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100", "USD")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)

	info, err := f.service.UpdateDraft(ctx, UpdateExpenseInput{
		CompanyID:   companyID,
		RequesterID: uuid.New(),
		ExpenseID:   e.ID,
		Category:    expense.CategoryMeals,
		Amount:      decimal.RequireFromString("90"),
		Currency:    "USD",
		Description: "Smaller dinner",
		SpentAt:     e.SpentAt,
	})

	require.Error(t, err)
	assert.Nil(t, info)
	assertDomainErrorCode(t, err, "FORBIDDEN")
}

func TestService_Submit_SameCurrencySkipsRateLookup(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100.456", "INR")
	company := testCompany(t, "INR")
	approverID := uuid.New()
	flow := testFlow(t, companyID, approverID)

	owner, err := identity.NewUser(companyID, "Ada", "Lovelace", "ada@example.com", "Password123", identity.RoleEmployee)
	require.NoError(t, err)

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.companyRepo.On("FindByID", ctx, companyID).Return(company, nil)
	f.flowRepo.On("FindDefault", ctx, companyID).Return(flow, nil)
	f.userRepo.On("FindByIDForCompany", ctx, companyID, ownerID).Return(owner, nil)
	f.expenseRepo.On("Update", ctx, e).Return(nil)

	info, err := f.service.Submit(ctx, SubmitExpenseInput{
		CompanyID:   companyID,
		RequesterID: ownerID,
		ExpenseID:   e.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, expense.StatusPending, info.Status)
	assert.Equal(t, 1, info.CurrentStep)
	assert.True(t, info.ExchangeRate.Equal(decimal.NewFromInt(1)))
	// Converted amount is quantized to cents
	assert.Equal(t, "100.46", info.ConvertedAmount.Amount().StringFixed(2))
	f.rates.AssertNotCalled(t, "Rate", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Submit_ConvertsIntoCompanyCurrency(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100", "USD")
	company := testCompany(t, "INR")
	flow := testFlow(t, companyID, uuid.New())

	owner, err := identity.NewUser(companyID, "Ada", "Lovelace", "ada@example.com", "Password123", identity.RoleEmployee)
	require.NoError(t, err)

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.companyRepo.On("FindByID", ctx, companyID).Return(company, nil)
	f.rates.On("Rate", ctx, valueobject.Currency("USD"), valueobject.Currency("INR")).
		Return(decimal.RequireFromString("83.1275"), nil)
	f.flowRepo.On("FindDefault", ctx, companyID).Return(flow, nil)
	f.userRepo.On("FindByIDForCompany", ctx, companyID, ownerID).Return(owner, nil)
	f.expenseRepo.On("Update", ctx, e).Return(nil)

	info, err := f.service.Submit(ctx, SubmitExpenseInput{
		CompanyID:   companyID,
		RequesterID: ownerID,
		ExpenseID:   e.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, valueobject.Currency("INR"), info.ConvertedAmount.Currency())
	assert.Equal(t, "8312.75", info.ConvertedAmount.Amount().StringFixed(2))
	assert.True(t, info.ExchangeRate.Equal(decimal.RequireFromString("83.1275")))
}

func TestService_Submit_RateUnavailableFailsSubmit(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100", "USD")
	company := testCompany(t, "INR")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.companyRepo.On("FindByID", ctx, companyID).Return(company, nil)
	f.rates.On("Rate", ctx, valueobject.Currency("USD"), valueobject.Currency("INR")).
		Return(decimal.Zero, errors.New("upstream timeout"))

	info, err := f.service.Submit(ctx, SubmitExpenseInput{
		CompanyID:   companyID,
		RequesterID: ownerID,
		ExpenseID:   e.ID,
	})

	require.Error(t, err)
	assert.Nil(t, info)
	assertDomainErrorCode(t, err, "RATE_UNAVAILABLE")
	assert.Equal(t, expense.StatusDraft, e.Status)
	f.expenseRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestService_Submit_ManagerPreApprovalStartsAtStepZero(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	company := testCompany(t, "EUR")
	flow := testFlow(t, companyID, uuid.New())

	manager, err := identity.NewUser(companyID, "Max", "Mustermann", "max@example.com", "Password123", identity.RoleManager)
	require.NoError(t, err)
	require.NoError(t, manager.SetManagerApprover(true))

	owner, err := identity.NewUser(companyID, "Ada", "Lovelace", "ada@example.com", "Password123", identity.RoleEmployee)
	require.NoError(t, err)
	require.NoError(t, owner.AssignManager(manager.ID))

	e := draftExpense(t, companyID, owner.ID, "55", "EUR")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.companyRepo.On("FindByID", ctx, companyID).Return(company, nil)
	f.flowRepo.On("FindDefault", ctx, companyID).Return(flow, nil)
	f.userRepo.On("FindByIDForCompany", ctx, companyID, owner.ID).Return(owner, nil)
	f.userRepo.On("FindByIDForCompany", ctx, companyID, manager.ID).Return(manager, nil)
	f.expenseRepo.On("Update", ctx, e).Return(nil)

	info, err := f.service.Submit(ctx, SubmitExpenseInput{
		CompanyID:   companyID,
		RequesterID: owner.ID,
		ExpenseID:   e.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 0, info.CurrentStep)
	require.NotNil(t, info.ManagerApproverID)
	assert.Equal(t, manager.ID, *info.ManagerApproverID)
}

func TestService_Submit_NoFlowNoManagerAutoApproves(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	company := testCompany(t, "EUR")

	owner, err := identity.NewUser(companyID, "Ada", "Lovelace", "ada@example.com", "Password123", identity.RoleEmployee)
	require.NoError(t, err)

	e := draftExpense(t, companyID, owner.ID, "55", "EUR")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.companyRepo.On("FindByID", ctx, companyID).Return(company, nil)
	f.flowRepo.On("FindDefault", ctx, companyID).Return(nil, nil)
	f.userRepo.On("FindByIDForCompany", ctx, companyID, owner.ID).Return(owner, nil)
	f.expenseRepo.On("Update", ctx, e).Return(nil)

	info, err := f.service.Submit(ctx, SubmitExpenseInput{
		CompanyID:   companyID,
		RequesterID: owner.ID,
		ExpenseID:   e.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, info.Status)
	require.NotNil(t, info.ApprovedBy)
	assert.Equal(t, owner.ID, *info.ApprovedBy)
}

func TestService_Cancel_OwnerWithdrawsPending(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100", "USD")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.expenseRepo.On("Update", ctx, e).Return(nil)

	info, err := f.service.Cancel(ctx, CancelExpenseInput{
		CompanyID:   companyID,
		RequesterID: ownerID,
		ExpenseID:   e.ID,
		Reason:      "Trip cancelled",
	})

	require.NoError(t, err)
	assert.Equal(t, expense.StatusCancelled, info.Status)
	assert.Equal(t, "Trip cancelled", info.CancelReason)
}

func TestService_MarkPaid_OnlyApproved(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	e := draftExpense(t, companyID, uuid.New(), "100", "USD")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)

	info, err := f.service.MarkPaid(ctx, MarkPaidInput{
		CompanyID:   companyID,
		RequesterID: uuid.New(),
		ExpenseID:   e.ID,
	})

	require.Error(t, err)
	assert.Nil(t, info)
	assertDomainErrorCode(t, err, "INVALID_STATE")
}

func TestService_Get_AccessControl(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	ownerID := uuid.New()

	admin, err := identity.NewUser(companyID, "Root", "Admin", "root@example.com", "Password123", identity.RoleAdmin)
	require.NoError(t, err)
	stranger, err := identity.NewUser(companyID, "Sam", "Stranger", "sam@example.com", "Password123", identity.RoleEmployee)
	require.NoError(t, err)

	t.Run("owner sees their expense", func(t *testing.T) {
		f := newExpenseFixture()
		e := draftExpense(t, companyID, ownerID, "100", "USD")
		f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)

		info, err := f.service.Get(ctx, GetExpenseInput{CompanyID: companyID, RequesterID: ownerID, ExpenseID: e.ID})
		require.NoError(t, err)
		assert.Equal(t, e.ID, info.ID)
	})

	t.Run("admin sees any expense", func(t *testing.T) {
		f := newExpenseFixture()
		e := draftExpense(t, companyID, ownerID, "100", "USD")
		f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
		f.userRepo.On("FindByIDForCompany", ctx, companyID, admin.ID).Return(admin, nil)

		_, err := f.service.Get(ctx, GetExpenseInput{CompanyID: companyID, RequesterID: admin.ID, ExpenseID: e.ID})
		require.NoError(t, err)
	})

	t.Run("unrelated employee is refused", func(t *testing.T) {
		f := newExpenseFixture()
		e := draftExpense(t, companyID, ownerID, "100", "USD")
		owner, err := identity.NewUser(companyID, "Ada", "Lovelace", "ada@example.com", "Password123", identity.RoleEmployee)
		require.NoError(t, err)

		f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
		f.userRepo.On("FindByIDForCompany", ctx, companyID, stranger.ID).Return(stranger, nil)
		f.userRepo.On("FindByIDForCompany", ctx, companyID, e.OwnerID).Return(owner, nil)

		_, err = f.service.Get(ctx, GetExpenseInput{CompanyID: companyID, RequesterID: stranger.ID, ExpenseID: e.ID})
		require.Error(t, err)
		assertDomainErrorCode(t, err, "FORBIDDEN")
	})
}

func TestService_AttachReceipt(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100", "USD")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)
	f.receipts.On("Upload", ctx, mock.AnythingOfType("string"), "image/png", mock.Anything, int64(12)).Return(nil)
	f.expenseRepo.On("Update", ctx, e).Return(nil)

	info, err := f.service.AttachReceipt(ctx, AttachReceiptInput{
		CompanyID:   companyID,
		RequesterID: ownerID,
		ExpenseID:   e.ID,
		FileName:    "../../dinner bill.png",
		ContentType: "image/png",
		Size:        12,
		Body:        strings.NewReader("not-real-png"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, info.ReceiptKey)
	// Path traversal and spaces are stripped from the stored key
	assert.NotContains(t, info.ReceiptKey, "..")
	assert.NotContains(t, info.ReceiptKey, " ")
	f.receipts.AssertExpectations(t)
}

func TestService_ReceiptURL_NoReceipt(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	ownerID := uuid.New()
	e := draftExpense(t, companyID, ownerID, "100", "USD")

	f.expenseRepo.On("FindByIDForCompany", ctx, companyID, e.ID).Return(e, nil)

	url, err := f.service.ReceiptURL(ctx, ReceiptURLInput{
		CompanyID:   companyID,
		RequesterID: ownerID,
		ExpenseID:   e.ID,
	})

	require.Error(t, err)
	assert.Empty(t, url)
	assertDomainErrorCode(t, err, "NO_RECEIPT")
}

func TestService_MonthlySummary(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	company := testCompany(t, "INR")

	totals := []expense.CategoryTotal{
		{Category: expense.CategoryTravel, Total: decimal.RequireFromString("12000.50"), Count: 3},
		{Category: expense.CategoryMeals, Total: decimal.RequireFromString("1500.00"), Count: 5},
	}

	f.companyRepo.On("FindByID", ctx, companyID).Return(company, nil)
	f.expenseRepo.On("SumByCategory", ctx, companyID, (*uuid.UUID)(nil),
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"),
		[]expense.Status{expense.StatusApproved, expense.StatusPaid}).
		Return(totals, nil)

	result, err := f.service.MonthlySummary(ctx, MonthlySummaryInput{
		CompanyID: companyID,
		Year:      2026,
		Month:     time.August,
	})

	require.NoError(t, err)
	assert.Equal(t, "INR", result.Currency)
	assert.Len(t, result.Categories, 2)
	assert.Equal(t, "13500.50", result.Total.StringFixed(2))
}

func TestService_ListOwn_ForcesOwnerFilter(t *testing.T) {
	ctx := context.Background()
	f := newExpenseFixture()
	companyID := uuid.New()
	requesterID := uuid.New()

	f.expenseRepo.On("FindAll", ctx, companyID, mock.MatchedBy(func(filter expense.Filter) bool {
		return filter.OwnerID != nil && *filter.OwnerID == requesterID
	})).Return([]*expense.Expense{}, int64(0), nil)

	otherOwner := uuid.New()
	result, err := f.service.ListOwn(ctx, requesterID, ListExpensesInput{
		CompanyID: companyID,
		OwnerID:   &otherOwner, // ignored
	})

	require.NoError(t, err)
	assert.Equal(t, int64(0), result.TotalCount)
	f.expenseRepo.AssertExpectations(t)
}
