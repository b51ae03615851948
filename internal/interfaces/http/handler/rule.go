package handler

import (
	"time"

	approvalapp "github.com/Jay1425/ExpensoX/internal/application/approval"
	"github.com/Jay1425/ExpensoX/internal/domain/approval"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RuleHandler handles conditional approval rule HTTP requests
type RuleHandler struct {
	BaseHandler
	ruleService *approvalapp.RuleService
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(ruleService *approvalapp.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// CreateRuleRequest represents the request body for creating an approval rule
type CreateRuleRequest struct {
	RuleType            string   `json:"rule_type" binding:"required,oneof=PERCENTAGE SPECIFIC HYBRID"`
	PercentageThreshold *float64 `json:"percentage_threshold,omitempty" binding:"omitempty,gt=0,lte=100"`
	SpecificApproverID  *string  `json:"specific_approver_id,omitempty" binding:"omitempty,uuid"`
}

// UpdateRuleRequest represents the request body for updating an approval rule
type UpdateRuleRequest struct {
	RuleType            string   `json:"rule_type" binding:"required,oneof=PERCENTAGE SPECIFIC HYBRID"`
	PercentageThreshold *float64 `json:"percentage_threshold,omitempty" binding:"omitempty,gt=0,lte=100"`
	SpecificApproverID  *string  `json:"specific_approver_id,omitempty" binding:"omitempty,uuid"`
}

// RuleResponse represents approval rule data in responses
type RuleResponse struct {
	ID                  uuid.UUID  `json:"id"`
	FlowID              uuid.UUID  `json:"flow_id"`
	RuleType            string     `json:"rule_type"`
	PercentageThreshold *string    `json:"percentage_threshold,omitempty"`
	SpecificApproverID  *uuid.UUID `json:"specific_approver_id,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func toRuleResponse(info *approvalapp.RuleInfo) RuleResponse {
	resp := RuleResponse{
		ID:                 info.ID,
		FlowID:             info.FlowID,
		RuleType:           string(info.RuleType),
		SpecificApproverID: info.SpecificApproverID,
		CreatedAt:          info.CreatedAt,
	}
	if info.PercentageThreshold != nil {
		s := info.PercentageThreshold.String()
		resp.PercentageThreshold = &s
	}
	return resp
}

// Create godoc
// @Summary      Create an approval rule
// @Description  Attach a percentage, specific-approver, or hybrid shortcut rule to a flow
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Flow ID" format(uuid)
// @Param        request body CreateRuleRequest true "Rule definition"
// @Success      201 {object} dto.Response{data=RuleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows/{id}/rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return
	}

	var req CreateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := approvalapp.CreateRuleInput{
		CompanyID: companyID,
		CreatedBy: userID,
		FlowID:    flowID,
		RuleType:  approval.RuleType(req.RuleType),
	}
	if req.PercentageThreshold != nil {
		input.PercentageThreshold = toDecimalPtr(*req.PercentageThreshold)
	}
	if req.SpecificApproverID != nil && *req.SpecificApproverID != "" {
		approverID, err := uuid.Parse(*req.SpecificApproverID)
		if err != nil {
			h.BadRequest(c, "Invalid approver ID format")
			return
		}
		input.SpecificApproverID = &approverID
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toRuleResponse(rule))
}

// Update godoc
// @Summary      Update an approval rule
// @Tags         rules
// @Accept       json
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Param        request body UpdateRuleRequest true "Rule fields"
// @Success      200 {object} dto.Response{data=RuleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rules/{id} [put]
func (h *RuleHandler) Update(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	var req UpdateRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := approvalapp.UpdateRuleInput{
		CompanyID: companyID,
		RuleID:    ruleID,
		RuleType:  approval.RuleType(req.RuleType),
	}
	if req.PercentageThreshold != nil {
		input.PercentageThreshold = toDecimalPtr(*req.PercentageThreshold)
	}
	if req.SpecificApproverID != nil && *req.SpecificApproverID != "" {
		approverID, err := uuid.Parse(*req.SpecificApproverID)
		if err != nil {
			h.BadRequest(c, "Invalid approver ID format")
			return
		}
		input.SpecificApproverID = &approverID
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toRuleResponse(rule))
}

// Delete godoc
// @Summary      Delete an approval rule
// @Tags         rules
// @Produce      json
// @Param        id path string true "Rule ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /rules/{id} [delete]
func (h *RuleHandler) Delete(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid rule ID format")
		return
	}

	if err := h.ruleService.DeleteRule(c.Request.Context(), companyID, ruleID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// List godoc
// @Summary      List a flow's rules
// @Tags         rules
// @Produce      json
// @Param        id path string true "Flow ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]RuleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows/{id}/rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return
	}

	rules, err := h.ruleService.ListRules(c.Request.Context(), companyID, flowID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]RuleResponse, len(rules))
	for i := range rules {
		out[i] = toRuleResponse(&rules[i])
	}
	h.Success(c, out)
}
