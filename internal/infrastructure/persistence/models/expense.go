package models

import (
	"time"

	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// moneyFrom rebuilds a Money value from its stored columns. Stored
// currencies were validated on the way in, so the constructor cannot
// fail here.
func moneyFrom(amount decimal.Decimal, currency string) valueobject.Money {
	m, _ := valueobject.NewMoney(amount, valueobject.Currency(currency))
	return m
}

// ExpenseModel is the persistence model for the Expense aggregate
type ExpenseModel struct {
	CompanyAggregateModel
	ExpenseNumber     string          `gorm:"type:varchar(50);not null;index"`
	OwnerID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	Category          string          `gorm:"type:varchar(30);not null;index"`
	Description       string          `gorm:"type:varchar(500);not null"`
	SpentAt           time.Time       `gorm:"not null;index"`
	OriginalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	OriginalCurrency  string          `gorm:"type:varchar(3);not null"`
	ConvertedAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ConvertedCurrency string          `gorm:"type:varchar(3)"`
	ExchangeRate      decimal.Decimal `gorm:"type:decimal(18,8);not null;default:0"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
	ReceiptKey        string          `gorm:"type:varchar(500)"`
	FlowID            *uuid.UUID      `gorm:"type:uuid;index"`
	CurrentStep       int             `gorm:"not null;default:0"`
	ManagerApproverID *uuid.UUID      `gorm:"type:uuid;index"`
	SubmittedAt       *time.Time      `gorm:"index"`
	ApprovedAt        *time.Time
	ApprovedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectedAt        *time.Time
	RejectedBy        *uuid.UUID `gorm:"type:uuid"`
	RejectionReason   string     `gorm:"type:varchar(500)"`
	PaidAt            *time.Time
	PaidBy            *uuid.UUID `gorm:"type:uuid"`
	CancelledAt       *time.Time
	CancelReason      string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *expense.Expense {
	e := &expense.Expense{
		ExpenseNumber:     m.ExpenseNumber,
		OwnerID:           m.OwnerID,
		Category:          expense.Category(m.Category),
		Description:       m.Description,
		SpentAt:           m.SpentAt,
		OriginalAmount:    moneyFrom(m.OriginalAmount, m.OriginalCurrency),
		ExchangeRate:      m.ExchangeRate,
		Status:            expense.Status(m.Status),
		ReceiptKey:        m.ReceiptKey,
		FlowID:            m.FlowID,
		CurrentStep:       m.CurrentStep,
		ManagerApproverID: m.ManagerApproverID,
		SubmittedAt:       m.SubmittedAt,
		ApprovedAt:        m.ApprovedAt,
		ApprovedBy:        m.ApprovedBy,
		RejectedAt:        m.RejectedAt,
		RejectedBy:        m.RejectedBy,
		RejectionReason:   m.RejectionReason,
		PaidAt:            m.PaidAt,
		PaidBy:            m.PaidBy,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
	}
	if m.ConvertedCurrency != "" {
		e.ConvertedAmount = moneyFrom(m.ConvertedAmount, m.ConvertedCurrency)
	}
	m.PopulateCompanyAggregateRoot(&e.CompanyAggregateRoot)
	return e
}

// ExpenseModelFromDomain creates a persistence model from a domain Expense
func ExpenseModelFromDomain(e *expense.Expense) *ExpenseModel {
	m := &ExpenseModel{
		ExpenseNumber:     e.ExpenseNumber,
		OwnerID:           e.OwnerID,
		Category:          string(e.Category),
		Description:       e.Description,
		SpentAt:           e.SpentAt,
		OriginalAmount:    e.OriginalAmount.Amount(),
		OriginalCurrency:  string(e.OriginalAmount.Currency()),
		ConvertedAmount:   e.ConvertedAmount.Amount(),
		ConvertedCurrency: string(e.ConvertedAmount.Currency()),
		ExchangeRate:      e.ExchangeRate,
		Status:            string(e.Status),
		ReceiptKey:        e.ReceiptKey,
		FlowID:            e.FlowID,
		CurrentStep:       e.CurrentStep,
		ManagerApproverID: e.ManagerApproverID,
		SubmittedAt:       e.SubmittedAt,
		ApprovedAt:        e.ApprovedAt,
		ApprovedBy:        e.ApprovedBy,
		RejectedAt:        e.RejectedAt,
		RejectedBy:        e.RejectedBy,
		RejectionReason:   e.RejectionReason,
		PaidAt:            e.PaidAt,
		PaidBy:            e.PaidBy,
		CancelledAt:       e.CancelledAt,
		CancelReason:      e.CancelReason,
	}
	m.FromDomainCompanyAggregateRoot(e.CompanyAggregateRoot)
	return m
}

// BudgetModel is the persistence model for the Budget aggregate
type BudgetModel struct {
	CompanyAggregateModel
	Category    string          `gorm:"type:varchar(30);index"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	PeriodStart time.Time       `gorm:"not null;index"`
	PeriodEnd   time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (BudgetModel) TableName() string {
	return "budgets"
}

// ToDomain converts the persistence model to a domain Budget
func (m *BudgetModel) ToDomain() *expense.Budget {
	b := &expense.Budget{
		Category:    expense.Category(m.Category),
		Amount:      moneyFrom(m.Amount, m.Currency),
		PeriodStart: m.PeriodStart,
		PeriodEnd:   m.PeriodEnd,
	}
	m.PopulateCompanyAggregateRoot(&b.CompanyAggregateRoot)
	return b
}

// BudgetModelFromDomain creates a persistence model from a domain Budget
func BudgetModelFromDomain(b *expense.Budget) *BudgetModel {
	m := &BudgetModel{
		Category:    string(b.Category),
		Amount:      b.Amount.Amount(),
		Currency:    string(b.Amount.Currency()),
		PeriodStart: b.PeriodStart,
		PeriodEnd:   b.PeriodEnd,
	}
	m.FromDomainCompanyAggregateRoot(b.CompanyAggregateRoot)
	return m
}
