package handler

import (
	auditapp "github.com/Jay1425/ExpensoX/internal/application/audit"
	"github.com/Jay1425/ExpensoX/internal/domain/audit"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler handles audit trail HTTP requests
type AuditHandler struct {
	BaseHandler
	auditService *auditapp.Service
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *auditapp.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditQuery represents the query parameters for an audit trail listing
type ListAuditQuery struct {
	ActorID       string `form:"actor_id" binding:"omitempty,uuid"`
	Action        string `form:"action" binding:"omitempty,oneof=CREATED UPDATED SUBMITTED APPROVED REJECTED ESCALATED PAID CANCELLED STATUS_CHANGED LOGGED_IN"`
	AggregateType string `form:"aggregate_type"`
	AggregateID   string `form:"aggregate_id" binding:"omitempty,uuid"`
	From          string `form:"from"`
	To            string `form:"to"`
	Page          int    `form:"page"`
	PageSize      int    `form:"page_size"`
}

// List godoc
// @Summary      Browse the audit trail
// @Description  Admin lists the company's audit entries, newest first
// @Tags         audit
// @Produce      json
// @Param        actor_id query string false "Filter by acting user" format(uuid)
// @Param        action query string false "Filter by action"
// @Param        aggregate_type query string false "Filter by aggregate type (expense, user, ...)"
// @Param        aggregate_id query string false "Filter by aggregate" format(uuid)
// @Param        from query string false "Occurred-at lower bound"
// @Param        to query string false "Occurred-at upper bound"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]audit.LogInfo,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var query ListAuditQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := auditapp.ListInput{
		CompanyID:     companyID,
		AggregateType: query.AggregateType,
		Page:          query.Page,
		PageSize:      query.PageSize,
	}
	if query.ActorID != "" {
		actorID, err := uuid.Parse(query.ActorID)
		if err != nil {
			h.BadRequest(c, "Invalid actor ID format")
			return
		}
		input.ActorID = &actorID
	}
	if query.Action != "" {
		action := audit.Action(query.Action)
		input.Action = &action
	}
	if query.AggregateID != "" {
		aggregateID, err := uuid.Parse(query.AggregateID)
		if err != nil {
			h.BadRequest(c, "Invalid aggregate ID format")
			return
		}
		input.AggregateID = &aggregateID
	}
	if query.From != "" {
		from, ok := parseSpentAt(query.From)
		if !ok {
			h.BadRequest(c, "from must be an RFC 3339 datetime or YYYY-MM-DD date")
			return
		}
		input.From = &from
	}
	if query.To != "" {
		to, ok := parseSpentAt(query.To)
		if !ok {
			h.BadRequest(c, "to must be an RFC 3339 datetime or YYYY-MM-DD date")
			return
		}
		input.To = &to
	}

	result, err := h.auditService.List(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Entries, result.TotalCount, result.Page, result.PageSize)
}

// Trail godoc
// @Summary      Aggregate audit trail
// @Description  Every audit entry recorded for one aggregate, oldest first
// @Tags         audit
// @Produce      json
// @Param        id path string true "Aggregate ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]audit.LogInfo}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /audit/{id} [get]
func (h *AuditHandler) Trail(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	aggregateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid aggregate ID format")
		return
	}

	entries, err := h.auditService.Trail(c.Request.Context(), companyID, aggregateID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, entries)
}
