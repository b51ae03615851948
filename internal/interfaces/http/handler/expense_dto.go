package handler

import (
	"time"

	expenseapp "github.com/Jay1425/ExpensoX/internal/application/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// =====================
// Expense Request DTOs
// =====================

// CreateExpenseRequest represents the request body for creating a draft
type CreateExpenseRequest struct {
	Category    string  `json:"category" binding:"required,oneof=TRAVEL MEALS ACCOMMODATION OFFICE_SUPPLIES TRANSPORT ENTERTAINMENT TRAINING OTHER"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Description string  `json:"description" binding:"required,min=1,max=2000"`
	SpentAt     string  `json:"spent_at" binding:"required"` // RFC 3339 date or datetime
}

// UpdateExpenseRequest represents the request body for editing a draft
type UpdateExpenseRequest struct {
	Category    string  `json:"category" binding:"required,oneof=TRAVEL MEALS ACCOMMODATION OFFICE_SUPPLIES TRANSPORT ENTERTAINMENT TRAINING OTHER"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required,len=3"`
	Description string  `json:"description" binding:"required,min=1,max=2000"`
	SpentAt     string  `json:"spent_at" binding:"required"`
}

// SubmitExpenseRequest represents the request body for submitting a draft.
// A missing flow_id picks the company default flow.
type SubmitExpenseRequest struct {
	FlowID *string `json:"flow_id,omitempty" binding:"omitempty,uuid"`
}

// CancelExpenseRequest represents the request body for withdrawing an expense
type CancelExpenseRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ListExpensesQuery represents the query parameters for an expense listing
type ListExpensesQuery struct {
	OwnerID   string `form:"owner_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=DRAFT PENDING IN_PROGRESS APPROVED REJECTED PAID CANCELLED"`
	Category  string `form:"category" binding:"omitempty,oneof=TRAVEL MEALS ACCOMMODATION OFFICE_SUPPLIES TRANSPORT ENTERTAINMENT TRAINING OTHER"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	Keyword   string `form:"keyword"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// MonthlySummaryQuery represents the query parameters for a spending summary
type MonthlySummaryQuery struct {
	Year    int    `form:"year" binding:"required,min=2000,max=2200"`
	Month   int    `form:"month" binding:"required,min=1,max=12"`
	OwnerID string `form:"owner_id" binding:"omitempty,uuid"`
}

// =====================
// Expense Response DTOs
// =====================

// MoneyResponse represents a monetary amount in responses. Amount is a
// decimal string to avoid float rounding on the wire.
type MoneyResponse struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func toMoneyResponse(m valueobject.Money) MoneyResponse {
	return MoneyResponse{
		Amount:   m.Amount().String(),
		Currency: string(m.Currency()),
	}
}

// ExpenseResponse represents expense data in responses
type ExpenseResponse struct {
	ID                uuid.UUID     `json:"id"`
	ExpenseNumber     string        `json:"expense_number"`
	OwnerID           uuid.UUID     `json:"owner_id"`
	Category          string        `json:"category"`
	Description       string        `json:"description"`
	SpentAt           time.Time     `json:"spent_at"`
	OriginalAmount    MoneyResponse `json:"original_amount"`
	ConvertedAmount   MoneyResponse `json:"converted_amount"`
	ExchangeRate      string        `json:"exchange_rate"`
	Status            string        `json:"status"`
	HasReceipt        bool          `json:"has_receipt"`
	FlowID            *uuid.UUID    `json:"flow_id,omitempty"`
	CurrentStep       int           `json:"current_step"`
	ManagerApproverID *uuid.UUID    `json:"manager_approver_id,omitempty"`
	SubmittedAt       *time.Time    `json:"submitted_at,omitempty"`
	ApprovedAt        *time.Time    `json:"approved_at,omitempty"`
	ApprovedBy        *uuid.UUID    `json:"approved_by,omitempty"`
	RejectedAt        *time.Time    `json:"rejected_at,omitempty"`
	RejectedBy        *uuid.UUID    `json:"rejected_by,omitempty"`
	RejectionReason   string        `json:"rejection_reason,omitempty"`
	PaidAt            *time.Time    `json:"paid_at,omitempty"`
	CancelledAt       *time.Time    `json:"cancelled_at,omitempty"`
	CancelReason      string        `json:"cancel_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

func toExpenseResponse(info *expenseapp.ExpenseInfo) ExpenseResponse {
	return ExpenseResponse{
		ID:                info.ID,
		ExpenseNumber:     info.ExpenseNumber,
		OwnerID:           info.OwnerID,
		Category:          string(info.Category),
		Description:       info.Description,
		SpentAt:           info.SpentAt,
		OriginalAmount:    toMoneyResponse(info.OriginalAmount),
		ConvertedAmount:   toMoneyResponse(info.ConvertedAmount),
		ExchangeRate:      info.ExchangeRate.String(),
		Status:            string(info.Status),
		HasReceipt:        info.ReceiptKey != "",
		FlowID:            info.FlowID,
		CurrentStep:       info.CurrentStep,
		ManagerApproverID: info.ManagerApproverID,
		SubmittedAt:       info.SubmittedAt,
		ApprovedAt:        info.ApprovedAt,
		ApprovedBy:        info.ApprovedBy,
		RejectedAt:        info.RejectedAt,
		RejectedBy:        info.RejectedBy,
		RejectionReason:   info.RejectionReason,
		PaidAt:            info.PaidAt,
		CancelledAt:       info.CancelledAt,
		CancelReason:      info.CancelReason,
		CreatedAt:         info.CreatedAt,
	}
}

func toExpenseResponses(infos []expenseapp.ExpenseInfo) []ExpenseResponse {
	out := make([]ExpenseResponse, len(infos))
	for i := range infos {
		out[i] = toExpenseResponse(&infos[i])
	}
	return out
}

// CategorySummaryResponse is one row of a monthly summary
type CategorySummaryResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int64  `json:"count"`
}

// MonthlySummaryResponse represents a month's spending per category
type MonthlySummaryResponse struct {
	Year       int                       `json:"year"`
	Month      int                       `json:"month"`
	Currency   string                    `json:"currency"`
	Categories []CategorySummaryResponse `json:"categories"`
	Total      string                    `json:"total"`
}

func toMonthlySummaryResponse(result *expenseapp.MonthlySummaryResult) MonthlySummaryResponse {
	categories := make([]CategorySummaryResponse, len(result.Categories))
	for i, row := range result.Categories {
		categories[i] = CategorySummaryResponse{
			Category: string(row.Category),
			Total:    row.Total.String(),
			Count:    row.Count,
		}
	}
	return MonthlySummaryResponse{
		Year:       result.Year,
		Month:      int(result.Month),
		Currency:   result.Currency,
		Categories: categories,
		Total:      result.Total.String(),
	}
}
