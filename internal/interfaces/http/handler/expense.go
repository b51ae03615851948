package handler

import (
	"net/http"
	"time"

	expenseapp "github.com/Jay1425/ExpensoX/internal/application/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/expense"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/Jay1425/ExpensoX/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ExpenseHandler handles expense lifecycle HTTP requests
type ExpenseHandler struct {
	BaseHandler
	expenseService *expenseapp.Service
	maxUploadSize  int64
}

// NewExpenseHandler creates a new expense handler. maxUploadSize bounds
// receipt uploads in bytes.
func NewExpenseHandler(expenseService *expenseapp.Service, maxUploadSize int64) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService: expenseService,
		maxUploadSize:  maxUploadSize,
	}
}

// parseSpentAt accepts RFC 3339 datetimes and plain dates
func parseSpentAt(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Create godoc
// @Summary      Create a draft expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body CreateExpenseRequest true "Expense details"
// @Success      201 {object} dto.Response{data=ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	spentAt, ok := parseSpentAt(req.SpentAt)
	if !ok {
		h.BadRequest(c, "spent_at must be an RFC 3339 datetime or YYYY-MM-DD date")
		return
	}

	result, err := h.expenseService.CreateDraft(c.Request.Context(), expenseapp.CreateExpenseInput{
		CompanyID:   companyID,
		OwnerID:     userID,
		Category:    expense.Category(req.Category),
		Amount:      toDecimal(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
		SpentAt:     spentAt,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toExpenseResponse(result))
}

// Update godoc
// @Summary      Update a draft expense
// @Description  Edit a draft. Submitted expenses cannot be edited.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body UpdateExpenseRequest true "Expense fields"
// @Success      200 {object} dto.Response{data=ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	spentAt, ok := parseSpentAt(req.SpentAt)
	if !ok {
		h.BadRequest(c, "spent_at must be an RFC 3339 datetime or YYYY-MM-DD date")
		return
	}

	result, err := h.expenseService.UpdateDraft(c.Request.Context(), expenseapp.UpdateExpenseInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
		Category:    expense.Category(req.Category),
		Amount:      toDecimal(req.Amount),
		Currency:    req.Currency,
		Description: req.Description,
		SpentAt:     spentAt,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(result))
}

// Submit godoc
// @Summary      Submit an expense
// @Description  Move a draft into the approval pipeline. The amount is
// @Description  converted to the company currency at submission time.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body SubmitExpenseRequest false "Optional flow selection"
// @Success      200 {object} dto.Response{data=ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/submit [post]
func (h *ExpenseHandler) Submit(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req SubmitExpenseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	input := expenseapp.SubmitExpenseInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
	}
	if req.FlowID != nil && *req.FlowID != "" {
		flowID, err := uuid.Parse(*req.FlowID)
		if err != nil {
			h.BadRequest(c, "Invalid flow ID format")
			return
		}
		input.FlowID = &flowID
	}

	result, err := h.expenseService.Submit(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(result))
}

// Cancel godoc
// @Summary      Cancel an expense
// @Description  Withdraw a draft or in-flight expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body CancelExpenseRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=ExpenseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/cancel [post]
func (h *ExpenseHandler) Cancel(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	var req CancelExpenseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	result, err := h.expenseService.Cancel(c.Request.Context(), expenseapp.CancelExpenseInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
		Reason:      req.Reason,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(result))
}

// MarkPaid godoc
// @Summary      Mark an expense paid
// @Description  Admin records the reimbursement of an approved expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ExpenseResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/pay [post]
func (h *ExpenseHandler) MarkPaid(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	result, err := h.expenseService.MarkPaid(c.Request.Context(), expenseapp.MarkPaidInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(result))
}

// GetByID godoc
// @Summary      Get expense by ID
// @Description  Owners, their approvers, managers, and admins can view
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=ExpenseResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	result, err := h.expenseService.Get(c.Request.Context(), expenseapp.GetExpenseInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(result))
}

func (h *ExpenseHandler) listInput(c *gin.Context, companyID uuid.UUID) (expenseapp.ListExpensesInput, bool) {
	var query ListExpensesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return expenseapp.ListExpensesInput{}, false
	}

	input := expenseapp.ListExpensesInput{
		CompanyID: companyID,
		Keyword:   query.Keyword,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.OwnerID != "" {
		ownerID, err := uuid.Parse(query.OwnerID)
		if err != nil {
			h.BadRequest(c, "Invalid owner ID format")
			return expenseapp.ListExpensesInput{}, false
		}
		input.OwnerID = &ownerID
	}
	if query.Status != "" {
		status := expense.Status(query.Status)
		input.Status = &status
	}
	if query.Category != "" {
		category := expense.Category(query.Category)
		input.Category = &category
	}
	if query.DateFrom != "" {
		from, ok := parseSpentAt(query.DateFrom)
		if !ok {
			h.BadRequest(c, "date_from must be an RFC 3339 datetime or YYYY-MM-DD date")
			return expenseapp.ListExpensesInput{}, false
		}
		input.DateFrom = &from
	}
	if query.DateTo != "" {
		to, ok := parseSpentAt(query.DateTo)
		if !ok {
			h.BadRequest(c, "date_to must be an RFC 3339 datetime or YYYY-MM-DD date")
			return expenseapp.ListExpensesInput{}, false
		}
		input.DateTo = &to
	}
	return input, true
}

// ListOwn godoc
// @Summary      List own expenses
// @Tags         expenses
// @Produce      json
// @Param        status query string false "Status filter"
// @Param        category query string false "Category filter"
// @Param        date_from query string false "Spent-at lower bound"
// @Param        date_to query string false "Spent-at upper bound"
// @Param        keyword query string false "Match against description and number"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]ExpenseResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses [get]
func (h *ExpenseHandler) ListOwn(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	input, ok := h.listInput(c, companyID)
	if !ok {
		return
	}

	result, err := h.expenseService.ListOwn(c.Request.Context(), userID, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toExpenseResponses(result.Expenses), result.TotalCount, result.Page, result.PageSize)
}

// ListCompany godoc
// @Summary      List company expenses
// @Description  Admins and managers browse every expense in the company
// @Tags         expenses
// @Produce      json
// @Param        owner_id query string false "Filter by owner" format(uuid)
// @Param        status query string false "Status filter"
// @Param        category query string false "Category filter"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]ExpenseResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/all [get]
func (h *ExpenseHandler) ListCompany(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	input, ok := h.listInput(c, companyID)
	if !ok {
		return
	}

	result, err := h.expenseService.ListCompany(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toExpenseResponses(result.Expenses), result.TotalCount, result.Page, result.PageSize)
}

// UploadReceipt godoc
// @Summary      Attach a receipt
// @Description  Upload a receipt image or PDF for the expense (multipart form, field "file")
// @Tags         expenses
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        file formData file true "Receipt file"
// @Success      200 {object} dto.Response{data=ExpenseResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/receipt [post]
func (h *ExpenseHandler) UploadReceipt(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Missing receipt file")
		return
	}
	if h.maxUploadSize > 0 && fileHeader.Size > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "Receipt exceeds the upload size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.expenseService.AttachReceipt(c.Request.Context(), expenseapp.AttachReceiptInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toExpenseResponse(result))
}

// GetReceiptURL godoc
// @Summary      Get receipt download link
// @Description  Returns a short-lived presigned URL for the stored receipt
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} dto.Response{data=URLData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/{id}/receipt [get]
func (h *ExpenseHandler) GetReceiptURL(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	expenseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid expense ID format")
		return
	}

	url, err := h.expenseService.ReceiptURL(c.Request.Context(), expenseapp.ReceiptURLInput{
		CompanyID:   companyID,
		RequesterID: userID,
		ExpenseID:   expenseID,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, URLData{URL: url})
}

// MonthlySummary godoc
// @Summary      Monthly spending summary
// @Description  Approved and paid spending per category for one month.
// @Description  Employees see their own spending; admins and managers may
// @Description  pass owner_id or omit it for the whole company.
// @Tags         expenses
// @Produce      json
// @Param        year query int true "Year"
// @Param        month query int true "Month (1-12)"
// @Param        owner_id query string false "Restrict to one owner" format(uuid)
// @Success      200 {object} dto.Response{data=MonthlySummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /expenses/summary [get]
func (h *ExpenseHandler) MonthlySummary(c *gin.Context) {
	companyID, userID, ok := h.identity(c)
	if !ok {
		return
	}

	var query MonthlySummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := expenseapp.MonthlySummaryInput{
		CompanyID: companyID,
		Year:      query.Year,
		Month:     time.Month(query.Month),
	}

	role := identity.Role(middleware.GetJWTRole(c))
	switch {
	case role == identity.RoleEmployee:
		// Employees only ever see their own spending
		input.OwnerID = &userID
	case query.OwnerID != "":
		ownerID, err := uuid.Parse(query.OwnerID)
		if err != nil {
			h.BadRequest(c, "Invalid owner ID format")
			return
		}
		input.OwnerID = &ownerID
	}

	result, err := h.expenseService.MonthlySummary(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toMonthlySummaryResponse(result))
}
