package handler

import (
	"time"

	expenseapp "github.com/Jay1425/ExpensoX/internal/application/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BudgetHandler handles budget management HTTP requests
type BudgetHandler struct {
	BaseHandler
	budgetService *expenseapp.BudgetService
}

// NewBudgetHandler creates a new budget handler
func NewBudgetHandler(budgetService *expenseapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CreateBudgetRequest represents the request body for creating a budget.
// An empty category makes it an overall budget.
type CreateBudgetRequest struct {
	Category    string  `json:"category" binding:"omitempty,oneof=TRAVEL MEALS ACCOMMODATION OFFICE_SUPPLIES TRANSPORT ENTERTAINMENT TRAINING OTHER"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PeriodStart string  `json:"period_start" binding:"required"`
	PeriodEnd   string  `json:"period_end" binding:"required"`
}

// UpdateBudgetRequest represents the request body for updating a budget
type UpdateBudgetRequest struct {
	Category    string  `json:"category" binding:"omitempty,oneof=TRAVEL MEALS ACCOMMODATION OFFICE_SUPPLIES TRANSPORT ENTERTAINMENT TRAINING OTHER"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PeriodStart string  `json:"period_start" binding:"required"`
	PeriodEnd   string  `json:"period_end" binding:"required"`
}

// BudgetResponse represents budget data in responses
type BudgetResponse struct {
	ID          uuid.UUID     `json:"id"`
	Category    string        `json:"category,omitempty"`
	Amount      MoneyResponse `json:"amount"`
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	CreatedAt   time.Time     `json:"created_at"`
}

// BudgetReportResponse compares one budget against actual approved spend
type BudgetReportResponse struct {
	Budget    BudgetResponse `json:"budget"`
	Spent     string         `json:"spent"`
	Remaining string         `json:"remaining"`
	Exceeded  bool           `json:"exceeded"`
}

func toBudgetResponse(info *expenseapp.BudgetInfo) BudgetResponse {
	return BudgetResponse{
		ID:          info.ID,
		Category:    string(info.Category),
		Amount:      toMoneyResponse(info.Amount),
		PeriodStart: info.PeriodStart,
		PeriodEnd:   info.PeriodEnd,
		CreatedAt:   info.CreatedAt,
	}
}

// Create godoc
// @Summary      Create a budget
// @Description  Admin sets a spending cap for a category or the whole company
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        request body CreateBudgetRequest true "Budget details"
// @Success      201 {object} dto.Response{data=BudgetResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	start, okStart := parseSpentAt(req.PeriodStart)
	end, okEnd := parseSpentAt(req.PeriodEnd)
	if !okStart || !okEnd {
		h.BadRequest(c, "period_start and period_end must be RFC 3339 datetimes or YYYY-MM-DD dates")
		return
	}

	result, err := h.budgetService.CreateBudget(c.Request.Context(), expenseapp.CreateBudgetInput{
		CompanyID:   companyID,
		CreatedBy:   userID,
		Category:    expense.Category(req.Category),
		Amount:      toDecimal(req.Amount),
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toBudgetResponse(result))
}

// Update godoc
// @Summary      Update a budget
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Param        request body UpdateBudgetRequest true "Budget fields"
// @Success      200 {object} dto.Response{data=BudgetResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID format")
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	start, okStart := parseSpentAt(req.PeriodStart)
	end, okEnd := parseSpentAt(req.PeriodEnd)
	if !okStart || !okEnd {
		h.BadRequest(c, "period_start and period_end must be RFC 3339 datetimes or YYYY-MM-DD dates")
		return
	}

	result, err := h.budgetService.UpdateBudget(c.Request.Context(), expenseapp.UpdateBudgetInput{
		CompanyID:   companyID,
		BudgetID:    budgetID,
		Category:    expense.Category(req.Category),
		Amount:      toDecimal(req.Amount),
		PeriodStart: start,
		PeriodEnd:   end,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBudgetResponse(result))
}

// Delete godoc
// @Summary      Delete a budget
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	budgetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid budget ID format")
		return
	}

	if err := h.budgetService.DeleteBudget(c.Request.Context(), companyID, budgetID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// List godoc
// @Summary      List budgets
// @Tags         budgets
// @Produce      json
// @Success      200 {object} dto.Response{data=[]BudgetResponse}
// @Security     BearerAuth
// @Router       /budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	budgets, err := h.budgetService.ListBudgets(c.Request.Context(), companyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		out[i] = toBudgetResponse(&budgets[i])
	}
	h.Success(c, out)
}

// Report godoc
// @Summary      Budget spend report
// @Description  Compare each budget against approved and paid spend in its period
// @Tags         budgets
// @Produce      json
// @Success      200 {object} dto.Response{data=[]BudgetReportResponse}
// @Security     BearerAuth
// @Router       /budgets/report [get]
func (h *BudgetHandler) Report(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	rows, err := h.budgetService.SpendReport(c.Request.Context(), companyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]BudgetReportResponse, len(rows))
	for i, row := range rows {
		out[i] = BudgetReportResponse{
			Budget:    toBudgetResponse(&row.Budget),
			Spent:     row.Spent.String(),
			Remaining: row.Remaining.String(),
			Exceeded:  row.Exceeded,
		}
	}
	h.Success(c, out)
}
