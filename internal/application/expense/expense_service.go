package expense

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RateProvider supplies an exchange rate between two currencies
type RateProvider interface {
	Rate(ctx context.Context, from, to valueobject.Currency) (decimal.Decimal, error)
}

// ReceiptStorage stores receipt files in object storage
type ReceiptStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Converted amounts are quantized to cents
const convertedScale = 2

// Presigned receipt links stay valid long enough for a review session
const receiptURLExpiry = 15 * time.Minute

// Extra attempts when a concurrent draft grabs the same number
const expenseNumberRetries = 3

// Service handles the expense lifecycle from draft to payout. Routing
// decisions live in the approval application service; this one owns
// drafting, submission, cancellation, payout and reporting.
type Service struct {
	expenseRepo expense.Repository
	userRepo    identity.UserRepository
	companyRepo identity.CompanyRepository
	flowRepo    approval.FlowRepository
	rates       RateProvider
	receipts    ReceiptStorage
	eventBus    shared.EventPublisher
	logger      *zap.Logger
}

// NewService creates a new expense service
func NewService(
	expenseRepo expense.Repository,
	userRepo identity.UserRepository,
	companyRepo identity.CompanyRepository,
	flowRepo approval.FlowRepository,
	rates RateProvider,
	receipts ReceiptStorage,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *Service {
	return &Service{
		expenseRepo: expenseRepo,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		flowRepo:    flowRepo,
		rates:       rates,
		receipts:    receipts,
		eventBus:    eventBus,
		logger:      logger,
	}
}

// CreateDraft creates a new draft expense with a sequential number
func (s *Service) CreateDraft(ctx context.Context, input CreateExpenseInput) (*ExpenseInfo, error) {
	amount, err := valueobject.NewMoney(input.Amount, valueobject.Currency(strings.ToUpper(input.Currency)))
	if err != nil {
		return nil, err
	}

	// Numbering derives from the per-month count, so two concurrent
	// drafts can pick the same number; the unique index rejects the
	// loser and we re-count.
	var e *expense.Expense
	for attempt := 0; ; attempt++ {
		number, err := s.nextExpenseNumber(ctx, input.CompanyID)
		if err != nil {
			return nil, err
		}

		e, err = expense.NewExpense(input.CompanyID, input.OwnerID, number, input.Category, amount, input.Description, input.SpentAt)
		if err != nil {
			return nil, err
		}

		err = s.expenseRepo.Create(ctx, e)
		if err == nil {
			break
		}
		if errors.Is(err, shared.ErrAlreadyExists) && attempt < expenseNumberRetries {
			s.logger.Warn("Expense number collision, re-allocating",
				zap.String("expense_number", number),
				zap.Int("attempt", attempt+1))
			continue
		}
		s.logger.Error("Failed to persist expense", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to create expense")
	}

	s.publishEvents(ctx, e)

	s.logger.Info("Expense draft created",
		zap.String("expense_id", e.ID.String()),
		zap.String("expense_number", e.ExpenseNumber),
		zap.String("owner_id", e.OwnerID.String()))

	info := NewExpenseInfo(e)
	return &info, nil
}

// UpdateDraft edits a draft expense. Only the owner may edit.
func (s *Service) UpdateDraft(ctx context.Context, input UpdateExpenseInput) (*ExpenseInfo, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}
	if e.OwnerID != input.RequesterID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the owner can edit an expense")
	}

	amount, err := valueobject.NewMoney(input.Amount, valueobject.Currency(strings.ToUpper(input.Currency)))
	if err != nil {
		return nil, err
	}

	if err := e.UpdateDraft(input.Category, amount, input.Description, input.SpentAt); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to update expense", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update expense")
	}

	info := NewExpenseInfo(e)
	return &info, nil
}

// Submit moves a draft into the approval pipeline. The amount is
// converted into the company currency at the current rate; without a
// rate the submit fails. Routing starts at the owner's manager when a
// pre-approval is configured, otherwise at the first flow step. With
// no manager pre-step and no flow the expense auto-approves.
func (s *Service) Submit(ctx context.Context, input SubmitExpenseInput) (*ExpenseInfo, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}
	if e.OwnerID != input.RequesterID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the owner can submit an expense")
	}

	company, err := s.companyRepo.FindByID(ctx, input.CompanyID)
	if err != nil {
		return nil, shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
	}

	converted, rate, err := s.convert(ctx, e.OriginalAmount, company.CurrencyCode)
	if err != nil {
		return nil, err
	}

	flow, err := s.resolveFlow(ctx, input.CompanyID, input.FlowID)
	if err != nil {
		return nil, err
	}

	managerApproverID, err := s.managerApprover(ctx, input.CompanyID, e.OwnerID)
	if err != nil {
		return nil, err
	}

	var flowID *uuid.UUID
	if flow != nil {
		flowID = &flow.ID
	}

	if err := e.Submit(converted, rate, flowID, managerApproverID); err != nil {
		return nil, err
	}

	// Nobody to ask: the claim stands approved as filed
	if flowID == nil && managerApproverID == nil {
		if err := e.FinalizeApproved(e.OwnerID); err != nil {
			return nil, err
		}
	}

	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to update expense on submit", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to submit expense")
	}

	s.publishEvents(ctx, e)

	s.logger.Info("Expense submitted",
		zap.String("expense_id", e.ID.String()),
		zap.String("expense_number", e.ExpenseNumber),
		zap.String("status", string(e.Status)),
		zap.String("rate", rate.String()))

	info := NewExpenseInfo(e)
	return &info, nil
}

// Cancel withdraws a draft or still-pending expense
func (s *Service) Cancel(ctx context.Context, input CancelExpenseInput) (*ExpenseInfo, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}

	if err := e.Cancel(input.RequesterID, input.Reason); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to cancel expense", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to cancel expense")
	}

	s.publishEvents(ctx, e)

	info := NewExpenseInfo(e)
	return &info, nil
}

// MarkPaid records the reimbursement of an approved expense
func (s *Service) MarkPaid(ctx context.Context, input MarkPaidInput) (*ExpenseInfo, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}

	if err := e.MarkPaid(input.RequesterID); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to mark expense paid", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to mark expense as paid")
	}

	s.publishEvents(ctx, e)

	s.logger.Info("Expense paid",
		zap.String("expense_id", e.ID.String()),
		zap.String("paid_by", input.RequesterID.String()))

	info := NewExpenseInfo(e)
	return &info, nil
}

// Get returns one expense if the requester is allowed to see it: the
// owner, their manager, anyone who approves it, or an admin.
func (s *Service) Get(ctx context.Context, input GetExpenseInput) (*ExpenseInfo, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}

	allowed, err := s.canView(ctx, e, input.CompanyID, input.RequesterID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, shared.NewDomainError("FORBIDDEN", "You are not allowed to view this expense")
	}

	info := NewExpenseInfo(e)
	return &info, nil
}

// ListOwn returns the requester's own expenses
func (s *Service) ListOwn(ctx context.Context, requesterID uuid.UUID, input ListExpensesInput) (*ListExpensesResult, error) {
	input.OwnerID = &requesterID
	return s.list(ctx, input)
}

// ListCompany returns any expenses of the company, for admins and
// managers reviewing spend
func (s *Service) ListCompany(ctx context.Context, input ListExpensesInput) (*ListExpensesResult, error) {
	return s.list(ctx, input)
}

// AttachReceipt uploads a receipt file and links it to the expense
func (s *Service) AttachReceipt(ctx context.Context, input AttachReceiptInput) (*ExpenseInfo, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return nil, shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}
	if e.OwnerID != input.RequesterID {
		return nil, shared.NewDomainError("FORBIDDEN", "Only the owner can attach a receipt")
	}

	key := fmt.Sprintf("receipts/%s/%s/%s", input.CompanyID, input.ExpenseID, sanitizeFileName(input.FileName))
	if err := s.receipts.Upload(ctx, key, input.ContentType, input.Body, input.Size); err != nil {
		s.logger.Error("Failed to upload receipt", zap.String("key", key), zap.Error(err))
		return nil, shared.NewDomainError("UPLOAD_FAILED", "Failed to store the receipt file")
	}

	if err := e.AttachReceipt(key); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.Update(ctx, e); err != nil {
		s.logger.Error("Failed to link receipt", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to attach receipt")
	}

	s.logger.Info("Receipt attached",
		zap.String("expense_id", e.ID.String()),
		zap.String("key", key))

	info := NewExpenseInfo(e)
	return &info, nil
}

// ReceiptURL returns a short-lived download link for the receipt
func (s *Service) ReceiptURL(ctx context.Context, input ReceiptURLInput) (string, error) {
	e, err := s.expenseRepo.FindByIDForCompany(ctx, input.CompanyID, input.ExpenseID)
	if err != nil {
		return "", shared.NewDomainError("EXPENSE_NOT_FOUND", "Expense not found")
	}

	allowed, err := s.canView(ctx, e, input.CompanyID, input.RequesterID)
	if err != nil {
		return "", err
	}
	if !allowed {
		return "", shared.NewDomainError("FORBIDDEN", "You are not allowed to view this expense")
	}
	if e.ReceiptKey == "" {
		return "", shared.NewDomainError("NO_RECEIPT", "Expense has no receipt attached")
	}

	url, err := s.receipts.PresignedURL(ctx, e.ReceiptKey, receiptURLExpiry)
	if err != nil {
		s.logger.Error("Failed to presign receipt URL", zap.String("key", e.ReceiptKey), zap.Error(err))
		return "", shared.NewDomainError("INTERNAL_ERROR", "Failed to generate receipt link")
	}
	return url, nil
}

// MonthlySummary sums converted spending per category for one month
func (s *Service) MonthlySummary(ctx context.Context, input MonthlySummaryInput) (*MonthlySummaryResult, error) {
	if input.Year < 2000 || input.Month < time.January || input.Month > time.December {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Invalid summary month")
	}

	var result *MonthlySummaryResult
	var operationErr error
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationMonthlySummary, nil), func(c context.Context) {
		company, err := s.companyRepo.FindByID(c, input.CompanyID)
		if err != nil {
			operationErr = shared.NewDomainError("COMPANY_NOT_FOUND", "Company not found")
			return
		}

		statuses := input.Statuses
		if len(statuses) == 0 {
			statuses = []expense.Status{expense.StatusApproved, expense.StatusPaid}
		}

		from := time.Date(input.Year, input.Month, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

		totals, err := s.expenseRepo.SumByCategory(c, input.CompanyID, input.OwnerID, from, to, statuses)
		if err != nil {
			s.logger.Error("Failed to build monthly summary", zap.Error(err))
			operationErr = shared.NewDomainError("INTERNAL_ERROR", "Failed to build summary")
			return
		}

		result = &MonthlySummaryResult{
			Year:     input.Year,
			Month:    input.Month,
			Currency: string(company.CurrencyCode),
			Total:    decimal.Zero,
		}
		for _, t := range totals {
			result.Categories = append(result.Categories, CategorySummary{
				Category: t.Category,
				Total:    t.Total,
				Count:    t.Count,
			})
			result.Total = result.Total.Add(t.Total)
		}
	})
	if operationErr != nil {
		return nil, operationErr
	}
	return result, nil
}

func (s *Service) list(ctx context.Context, input ListExpensesInput) (*ListExpensesResult, error) {
	filter := expense.NewFilter()
	filter.OwnerID = input.OwnerID
	filter.Status = input.Status
	filter.Category = input.Category
	filter.DateFrom = input.DateFrom
	filter.DateTo = input.DateTo
	filter.Keyword = input.Keyword
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

	expenses, total, err := s.expenseRepo.FindAll(ctx, input.CompanyID, filter)
	if err != nil {
		s.logger.Error("Failed to list expenses", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list expenses")
	}

	infos := make([]ExpenseInfo, len(expenses))
	for i, e := range expenses {
		infos[i] = NewExpenseInfo(e)
	}

	return &ListExpensesResult{
		Expenses:   infos,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
	}, nil
}

// convert prices the original amount in the company currency. A spend
// already in the company currency converts at rate 1 without touching
// the rate provider.
func (s *Service) convert(ctx context.Context, original valueobject.Money, base valueobject.Currency) (valueobject.Money, decimal.Decimal, error) {
	if original.Currency() == base {
		return original.Round(convertedScale), decimal.NewFromInt(1), nil
	}

	rate, err := s.rates.Rate(ctx, original.Currency(), base)
	if err != nil {
		s.logger.Warn("Exchange rate unavailable",
			zap.String("from", string(original.Currency())),
			zap.String("to", string(base)),
			zap.Error(err))
		return valueobject.Money{}, decimal.Zero, shared.NewDomainError("RATE_UNAVAILABLE", "Exchange rate is currently unavailable, try again later")
	}

	converted, err := original.ConvertAt(rate, base)
	if err != nil {
		return valueobject.Money{}, decimal.Zero, err
	}
	return converted.Round(convertedScale), rate, nil
}

// resolveFlow picks the explicit flow or falls back to the company
// default. No default is fine; routing may be manager-only.
func (s *Service) resolveFlow(ctx context.Context, companyID uuid.UUID, flowID *uuid.UUID) (*approval.Flow, error) {
	if flowID != nil {
		flow, err := s.flowRepo.FindByIDForCompany(ctx, companyID, *flowID)
		if err != nil {
			return nil, shared.NewDomainError("FLOW_NOT_FOUND", "Approval flow not found")
		}
		return flow, nil
	}

	flow, err := s.flowRepo.FindDefault(ctx, companyID)
	if err != nil {
		s.logger.Error("Failed to look up default flow", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to resolve approval flow")
	}
	return flow, nil
}

// managerApprover returns the owner's manager when a manager
// pre-approval is configured and the manager can still act
func (s *Service) managerApprover(ctx context.Context, companyID, ownerID uuid.UUID) (*uuid.UUID, error) {
	owner, err := s.userRepo.FindByIDForCompany(ctx, companyID, ownerID)
	if err != nil {
		return nil, shared.NewDomainError("USER_NOT_FOUND", "Expense owner not found")
	}
	if owner.ManagerID == nil {
		return nil, nil
	}

	manager, err := s.userRepo.FindByIDForCompany(ctx, companyID, *owner.ManagerID)
	if err != nil {
		s.logger.Warn("Owner's manager not found",
			zap.String("owner_id", ownerID.String()),
			zap.String("manager_id", owner.ManagerID.String()))
		return nil, nil
	}
	if !manager.IsManagerApprover || !manager.IsActive() {
		return nil, nil
	}
	return &manager.ID, nil
}

func (s *Service) canView(ctx context.Context, e *expense.Expense, companyID, requesterID uuid.UUID) (bool, error) {
	if e.OwnerID == requesterID {
		return true, nil
	}
	if e.ManagerApproverID != nil && *e.ManagerApproverID == requesterID {
		return true, nil
	}

	requester, err := s.userRepo.FindByIDForCompany(ctx, companyID, requesterID)
	if err != nil {
		return false, shared.NewDomainError("USER_NOT_FOUND", "User not found")
	}
	if requester.Role == identity.RoleAdmin {
		return true, nil
	}

	owner, err := s.userRepo.FindByIDForCompany(ctx, companyID, e.OwnerID)
	if err == nil && owner.ManagerID != nil && *owner.ManagerID == requesterID {
		return true, nil
	}

	if e.FlowID != nil {
		flow, err := s.flowRepo.FindByIDForCompany(ctx, companyID, *e.FlowID)
		if err == nil && flow.HasApprover(requesterID) {
			return true, nil
		}
	}

	return false, nil
}

// nextExpenseNumber builds EXP-YYYYMM-SEQ from the per-month count
func (s *Service) nextExpenseNumber(ctx context.Context, companyID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	count, err := s.expenseRepo.CountForMonth(ctx, companyID, now.Year(), now.Month())
	if err != nil {
		s.logger.Error("Failed to count expenses for numbering", zap.Error(err))
		return "", shared.NewDomainError("INTERNAL_ERROR", "Failed to allocate an expense number")
	}
	return fmt.Sprintf("EXP-%04d%02d-%04d", now.Year(), int(now.Month()), count+1), nil
}

func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if name == "" || name == "." {
		name = "receipt"
	}
	return name
}

func (s *Service) publishEvents(ctx context.Context, e *expense.Expense) {
	events := e.GetDomainEvents()
	if s.eventBus == nil || len(events) == 0 {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Error("Failed to publish domain events", zap.Error(err))
	}
	e.ClearDomainEvents()
}
