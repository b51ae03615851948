package handler

import (
	"time"

	identityapp "github.com/Jay1425/ExpensoX/internal/application/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyHandler handles company settings HTTP requests
type CompanyHandler struct {
	BaseHandler
	companyService *identityapp.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService *identityapp.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// UpdateCompanyRequest represents the request body for renaming a company
type UpdateCompanyRequest struct {
	Name string `json:"name" binding:"required,min=2,max=200"`
}

// CompanyResponse represents company data in responses
type CompanyResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Country      string    `json:"country"`
	CurrencyCode string    `json:"currency_code"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toCompanyResponse(info *identityapp.CompanyInfo) CompanyResponse {
	return CompanyResponse{
		ID:           info.ID,
		Name:         info.Name,
		Country:      info.Country,
		CurrencyCode: info.CurrencyCode,
		Status:       string(info.Status),
		CreatedAt:    info.CreatedAt,
	}
}

// Get godoc
// @Summary      Get company
// @Description  Get the authenticated user's company
// @Tags         company
// @Produce      json
// @Success      200 {object} dto.Response{data=CompanyResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /company [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	company, err := h.companyService.GetCompany(c.Request.Context(), companyID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCompanyResponse(company))
}

// Update godoc
// @Summary      Rename company
// @Description  Admin renames the company. Country and currency are fixed at signup.
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        request body UpdateCompanyRequest true "Company fields"
// @Success      200 {object} dto.Response{data=CompanyResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /company [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var req UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	company, err := h.companyService.UpdateCompany(c.Request.Context(), identityapp.UpdateCompanyInput{
		CompanyID: companyID,
		Name:      req.Name,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCompanyResponse(company))
}
