package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared"
	"github.com/Jay1425/ExpensoX/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormExpenseRepository implements expense.Repository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// Create creates a new expense. A collision on the per-company
// expense-number index surfaces as shared.ErrAlreadyExists so the
// caller can re-allocate the number.
func (r *GormExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	model := models.ExpenseModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// Update updates an existing expense with optimistic locking. The
// domain increments the version on every state change, so the guard
// matches against the previous version.
func (r *GormExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	model := models.ExpenseModelFromDomain(e)
	result := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("id = ? AND version = ?", e.ID, e.Version-1).
		Select("*").
		Omit("id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByIDForCompany finds an expense by ID scoped to a company
func (r *GormExpenseRepository) FindByIDForCompany(ctx context.Context, companyID, id uuid.UUID) (*expense.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND id = ?", companyID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns expenses for a company matching the filter
func (r *GormExpenseRepository) FindAll(ctx context.Context, companyID uuid.UUID, filter expense.Filter) ([]*expense.Expense, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("company_id = ?", companyID)
	query = r.applyFilter(query, filter)
	return r.page(query, filter)
}

// FindPendingForApprover returns expenses waiting on the given user,
// either at the manager pre-step or at a flow step the user approves.
func (r *GormExpenseRepository) FindPendingForApprover(ctx context.Context, companyID, approverID uuid.UUID, filter expense.Filter) ([]*expense.Expense, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("company_id = ?", companyID).
		Where("status IN ?", []string{string(expense.StatusPending), string(expense.StatusInProgress)}).
		Where(`(current_step = 0 AND manager_approver_id = ?) OR EXISTS (
			SELECT 1 FROM approval_flow_steps fs
			WHERE fs.flow_id = expenses.flow_id
			  AND fs.step_number = expenses.current_step
			  AND fs.approver_id = ?)`, approverID, approverID)
	query = r.applyFilter(query, filter)
	return r.page(query, filter)
}

// CountForMonth counts expenses a company created in a month
func (r *GormExpenseRepository) CountForMonth(ctx context.Context, companyID uuid.UUID, year int, month time.Month) (int64, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("company_id = ? AND created_at >= ? AND created_at < ?", companyID, start, end).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveByFlow counts non-terminal expenses routed through a flow
func (r *GormExpenseRepository) CountActiveByFlow(ctx context.Context, companyID, flowID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("company_id = ? AND flow_id = ?", companyID, flowID).
		Where("status NOT IN ?", []string{
			string(expense.StatusRejected),
			string(expense.StatusPaid),
			string(expense.StatusCancelled),
		}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumByCategory sums converted amounts per category for expenses in
// the given statuses within a period
func (r *GormExpenseRepository) SumByCategory(ctx context.Context, companyID uuid.UUID, ownerID *uuid.UUID, from, to time.Time, statuses []expense.Status) ([]expense.CategoryTotal, error) {
	statusValues := make([]string, len(statuses))
	for i, s := range statuses {
		statusValues[i] = string(s)
	}

	query := r.db.WithContext(ctx).
		Model(&models.ExpenseModel{}).
		Where("company_id = ? AND spent_at >= ? AND spent_at <= ?", companyID, from, to)
	if len(statusValues) > 0 {
		query = query.Where("status IN ?", statusValues)
	}
	if ownerID != nil {
		query = query.Where("owner_id = ?", *ownerID)
	}

	var rows []struct {
		Category string
		Total    decimal.Decimal
		Count    int64
	}
	if err := query.
		Select("category, SUM(converted_amount) AS total, COUNT(*) AS count").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	totals := make([]expense.CategoryTotal, len(rows))
	for i, row := range rows {
		totals[i] = expense.CategoryTotal{
			Category: expense.Category(row.Category),
			Total:    row.Total,
			Count:    row.Count,
		}
	}
	return totals, nil
}

// applyFilter applies filter options to the query
func (r *GormExpenseRepository) applyFilter(query *gorm.DB, filter expense.Filter) *gorm.DB {
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Category != nil {
		query = query.Where("category = ?", string(*filter.Category))
	}
	if filter.DateFrom != nil {
		query = query.Where("spent_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("spent_at <= ?", *filter.DateTo)
	}
	if filter.Keyword != "" {
		pattern := "%" + strings.ToLower(filter.Keyword) + "%"
		query = query.Where(
			"LOWER(description) LIKE ? OR LOWER(expense_number) LIKE ?",
			pattern, pattern,
		)
	}
	return query
}

// page counts, sorts and paginates a filtered query
func (r *GormExpenseRepository) page(query *gorm.DB, filter expense.Filter) ([]*expense.Expense, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortBy := ValidateSortField(filter.SortBy, ExpenseSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.SortOrder)

	var expenseModels []*models.ExpenseModel
	if err := query.
		Order(sortBy + " " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&expenseModels).Error; err != nil {
		return nil, 0, err
	}

	expenses := make([]*expense.Expense, len(expenseModels))
	for i, model := range expenseModels {
		expenses[i] = model.ToDomain()
	}
	return expenses, total, nil
}

// Ensure GormExpenseRepository implements Repository
var _ expense.Repository = (*GormExpenseRepository)(nil)
