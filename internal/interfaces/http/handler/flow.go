package handler

import (
	"time"

	approvalapp "github.com/Jay1425/ExpensoX/internal/application/approval"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FlowHandler handles approval flow configuration HTTP requests
type FlowHandler struct {
	BaseHandler
	flowService *approvalapp.FlowService
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowService *approvalapp.FlowService) *FlowHandler {
	return &FlowHandler{flowService: flowService}
}

// FlowStepRequest is one approver position in a flow definition
type FlowStepRequest struct {
	StepNumber int    `json:"step_number" binding:"required,min=1"`
	ApproverID string `json:"approver_id" binding:"required,uuid"`
}

// CreateFlowRequest represents the request body for creating an approval flow
type CreateFlowRequest struct {
	Name      string            `json:"name" binding:"required,min=1,max=200"`
	Steps     []FlowStepRequest `json:"steps" binding:"required,min=1,dive"`
	IsDefault bool              `json:"is_default"`
}

// UpdateFlowRequest represents the request body for updating an approval flow
type UpdateFlowRequest struct {
	Name  string            `json:"name" binding:"required,min=1,max=200"`
	Steps []FlowStepRequest `json:"steps" binding:"required,min=1,dive"`
}

// FlowStepResponse is one approver position in flow responses
type FlowStepResponse struct {
	StepNumber int       `json:"step_number"`
	ApproverID uuid.UUID `json:"approver_id"`
}

// FlowResponse represents approval flow data in responses
type FlowResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	IsDefault bool               `json:"is_default"`
	Steps     []FlowStepResponse `json:"steps"`
	CreatedAt time.Time          `json:"created_at"`
}

func toFlowResponse(info *approvalapp.FlowInfo) FlowResponse {
	steps := make([]FlowStepResponse, len(info.Steps))
	for i, s := range info.Steps {
		steps[i] = FlowStepResponse{StepNumber: s.StepNumber, ApproverID: s.ApproverID}
	}
	return FlowResponse{
		ID:        info.ID,
		Name:      info.Name,
		IsDefault: info.IsDefault,
		Steps:     steps,
		CreatedAt: info.CreatedAt,
	}
}

func toStepInputs(h *BaseHandler, c *gin.Context, steps []FlowStepRequest) ([]approvalapp.StepInput, bool) {
	out := make([]approvalapp.StepInput, len(steps))
	for i, s := range steps {
		approverID, err := uuid.Parse(s.ApproverID)
		if err != nil {
			h.BadRequest(c, "Invalid approver ID format")
			return nil, false
		}
		out[i] = approvalapp.StepInput{StepNumber: s.StepNumber, ApproverID: approverID}
	}
	return out, true
}

// Create godoc
// @Summary      Create an approval flow
// @Description  Admin defines an ordered chain of approvers
// @Tags         flows
// @Accept       json
// @Produce      json
// @Param        request body CreateFlowRequest true "Flow definition"
// @Success      201 {object} dto.Response{data=FlowResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows [post]
func (h *FlowHandler) Create(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	steps, ok := toStepInputs(&h.BaseHandler, c, req.Steps)
	if !ok {
		return
	}

	flow, err := h.flowService.CreateFlow(c.Request.Context(), approvalapp.CreateFlowInput{
		CompanyID: companyID,
		CreatedBy: userID,
		Name:      req.Name,
		Steps:     steps,
		IsDefault: req.IsDefault,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFlowResponse(flow))
}

// Update godoc
// @Summary      Update an approval flow
// @Tags         flows
// @Accept       json
// @Produce      json
// @Param        id path string true "Flow ID" format(uuid)
// @Param        request body UpdateFlowRequest true "Flow fields"
// @Success      200 {object} dto.Response{data=FlowResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows/{id} [put]
func (h *FlowHandler) Update(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return
	}

	var req UpdateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	steps, ok := toStepInputs(&h.BaseHandler, c, req.Steps)
	if !ok {
		return
	}

	flow, err := h.flowService.UpdateFlow(c.Request.Context(), approvalapp.UpdateFlowInput{
		CompanyID: companyID,
		FlowID:    flowID,
		Name:      req.Name,
		Steps:     steps,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFlowResponse(flow))
}

// Delete godoc
// @Summary      Delete an approval flow
// @Description  Fails while any in-flight expense still routes through the flow
// @Tags         flows
// @Produce      json
// @Param        id path string true "Flow ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows/{id} [delete]
func (h *FlowHandler) Delete(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return
	}

	if err := h.flowService.DeleteFlow(c.Request.Context(), companyID, flowID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetByID godoc
// @Summary      Get approval flow by ID
// @Tags         flows
// @Produce      json
// @Param        id path string true "Flow ID" format(uuid)
// @Success      200 {object} dto.Response{data=FlowResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows/{id} [get]
func (h *FlowHandler) GetByID(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return
	}

	flow, err := h.flowService.GetFlow(c.Request.Context(), companyID, flowID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFlowResponse(flow))
}

// List godoc
// @Summary      List approval flows
// @Tags         flows
// @Produce      json
// @Success      200 {object} dto.Response{data=[]FlowResponse}
// @Security     BearerAuth
// @Router       /flows [get]
func (h *FlowHandler) List(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	flows, err := h.flowService.ListFlows(c.Request.Context(), companyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	out := make([]FlowResponse, len(flows))
	for i := range flows {
		out[i] = toFlowResponse(&flows[i])
	}
	h.Success(c, out)
}

// SetDefault godoc
// @Summary      Set the default flow
// @Description  New submissions without an explicit flow use the default
// @Tags         flows
// @Produce      json
// @Param        id path string true "Flow ID" format(uuid)
// @Success      200 {object} dto.Response{data=FlowResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /flows/{id}/default [post]
func (h *FlowHandler) SetDefault(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid flow ID format")
		return
	}

	flow, err := h.flowService.SetDefaultFlow(c.Request.Context(), companyID, flowID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFlowResponse(flow))
}
