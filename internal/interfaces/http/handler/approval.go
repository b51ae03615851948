package handler

import (
	"time"

	approvalapp "github.com/Jay1425/ExpensoX/internal/application/approval"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ApprovalHandler handles approval queue and decision HTTP requests
type ApprovalHandler struct {
	BaseHandler
	approvalService *approvalapp.Service
}

// NewApprovalHandler creates a new approval handler
func NewApprovalHandler(approvalService *approvalapp.Service) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

// DecideRequest represents the request body for acting on an expense
type DecideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Comment  string `json:"comment" binding:"max=1000"`
}

// PendingQuery represents the query parameters for the approver's queue
type PendingQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// PendingItemResponse is one expense waiting on the approver
type PendingItemResponse struct {
	ExpenseID     uuid.UUID  `json:"expense_id"`
	ExpenseNumber string     `json:"expense_number"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Amount        string     `json:"amount"`
	Status        string     `json:"status"`
	CurrentStep   int        `json:"current_step"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`
}

// DecisionDetailResponse is one recorded decision
type DecisionDetailResponse struct {
	ID         uuid.UUID `json:"id"`
	ExpenseID  uuid.UUID `json:"expense_id"`
	StepNumber int       `json:"step_number"`
	ApproverID uuid.UUID `json:"approver_id"`
	Status     string    `json:"status"`
	Comment    string    `json:"comment,omitempty"`
	ActedAt    time.Time `json:"acted_at"`
}

// DecisionOutcomeResponse reports where the expense ended up after a decision
type DecisionOutcomeResponse struct {
	ExpenseID     uuid.UUID              `json:"expense_id"`
	ExpenseNumber string                 `json:"expense_number"`
	Status        string                 `json:"status"`
	CurrentStep   int                    `json:"current_step"`
	FiredRuleID   *uuid.UUID             `json:"fired_rule_id,omitempty"`
	Decision      DecisionDetailResponse `json:"decision"`
}

func toDecisionDetailResponse(info approvalapp.DecisionInfo) DecisionDetailResponse {
	return DecisionDetailResponse{
		ID:         info.ID,
		ExpenseID:  info.ExpenseID,
		StepNumber: info.StepNumber,
		ApproverID: info.ApproverID,
		Status:     string(info.Status),
		Comment:    info.Comment,
		ActedAt:    info.ActedAt,
	}
}

func toDecisionOutcomeResponse(result *approvalapp.DecisionResult) DecisionOutcomeResponse {
	return DecisionOutcomeResponse{
		ExpenseID:     result.ExpenseID,
		ExpenseNumber: result.ExpenseNumber,
		Status:        string(result.Status),
		CurrentStep:   result.CurrentStep,
		FiredRuleID:   result.FiredRuleID,
		Decision:      toDecisionDetailResponse(result.Decision),
	}
}

// Pending godoc
// @Summary      Approval queue
// @Description  List the expenses currently waiting on the authenticated approver
// @Tags         approvals
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]PendingItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /approvals/pending [get]
func (h *ApprovalHandler) Pending(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var query PendingQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.approvalService.Pending(c.Request.Context(), approvalapp.PendingInput{
		CompanyID:  companyID,
		ApproverID: userID,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	items := make([]PendingItemResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = PendingItemResponse{
			ExpenseID:     item.ExpenseID,
			ExpenseNumber: item.ExpenseNumber,
			OwnerID:       item.OwnerID,
			Category:      string(item.Category),
			Description:   item.Description,
			Amount:        item.ConvertedStr,
			Status:        string(item.Status),
			CurrentStep:   item.CurrentStep,
			SubmittedAt:   item.SubmittedAt,
		}
	}

	h.SuccessWithMeta(c, items, result.TotalCount, result.Page, result.PageSize)
}

// Decide godoc
// @Summary      Approve or reject an expense
// @Description  Record the authenticated approver's decision at the current step
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body DecideRequest true "Decision and optional comment"
// @Success      200 {object} dto.Response{data=DecisionOutcomeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /approvals/{id}/decide [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.approvalService.Decide(c.Request.Context(), approvalapp.DecideInput{
		CompanyID:  companyID,
		ApproverID: userID,
		ExpenseID:  expenseID,
		Approve:    req.Decision == "APPROVE",
		Comment:    req.Comment,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDecisionOutcomeResponse(result))
}

// Override godoc
// @Summary      Override an approval
// @Description  Admin forces a final outcome regardless of the routing state
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body DecideRequest true "Decision and optional comment"
// @Success      200 {object} dto.Response{data=DecisionOutcomeResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /approvals/{id}/override [post]
func (h *ApprovalHandler) Override(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.approvalService.Override(c.Request.Context(), approvalapp.OverrideInput{
		CompanyID: companyID,
		AdminID:   userID,
		ExpenseID: expenseID,
		Approve:   req.Decision == "APPROVE",
		Comment:   req.Comment,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDecisionOutcomeResponse(result))
}

// History godoc
// @Summary      Decision history
// @Description  List every recorded decision for an expense, oldest first
// @Tags         approvals
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]DecisionDetailResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /approvals/{id}/history [get]
func (h *ApprovalHandler) History(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	decisions, err := h.approvalService.History(c.Request.Context(), companyID, expenseID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]DecisionDetailResponse, len(decisions))
	for i, d := range decisions {
		out[i] = toDecisionDetailResponse(d)
	}
	h.Success(c, out)
}
