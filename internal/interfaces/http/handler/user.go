package handler

import (
	identityapp "github.com/Jay1425/ExpensoX/internal/application/identity"
	"github.com/Jay1425/ExpensoX/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UserHandler handles user management HTTP requests
type UserHandler struct {
	BaseHandler
	userService *identityapp.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *identityapp.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func toAuthUserResponses(users []identityapp.UserInfo) []AuthUserResponse {
	out := make([]AuthUserResponse, len(users))
	for i, u := range users {
		out[i] = toAuthUserResponse(u)
	}
	return out
}

// Create godoc
// @Summary      Create a user
// @Description  Admin creates an employee or manager account
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body CreateUserRequest true "User details"
// @Success      201 {object} dto.Response{data=AuthUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	companyID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := identityapp.CreateUserInput{
		CompanyID: companyID,
		CreatedBy: actorID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      identity.Role(req.Role),
	}
	if req.ManagerID != nil && *req.ManagerID != "" {
		managerID, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			h.BadRequest(c, "Invalid manager ID format")
			return
		}
		input.ManagerID = &managerID
	}

	user, err := h.userService.CreateUser(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toAuthUserResponse(*user))
}

// GetByID godoc
// @Summary      Get user by ID
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=AuthUserResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [get]
func (h *UserHandler) GetByID(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), companyID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAuthUserResponse(*user))
}

// List godoc
// @Summary      List users
// @Description  List the company's users with optional filters
// @Tags         users
// @Produce      json
// @Param        keyword query string false "Match against name and email"
// @Param        role query string false "Role filter" Enums(ADMIN, MANAGER, EMPLOYEE)
// @Param        status query string false "Status filter" Enums(active, locked, deactivated)
// @Param        manager_id query string false "Filter by assigned manager" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} dto.Response{data=[]AuthUserResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users [get]
func (h *UserHandler) List(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	var query ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := identityapp.ListUsersInput{
		CompanyID: companyID,
		Keyword:   query.Keyword,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
	}
	if query.Role != "" {
		role := identity.Role(query.Role)
		input.Role = &role
	}
	if query.Status != "" {
		status := identity.UserStatus(query.Status)
		input.Status = &status
	}
	if query.ManagerID != "" {
		managerID, err := uuid.Parse(query.ManagerID)
		if err != nil {
			h.BadRequest(c, "Invalid manager ID format")
			return
		}
		input.ManagerID = &managerID
	}

	result, err := h.userService.ListUsers(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toAuthUserResponses(result.Users), result.TotalCount, result.Page, result.PageSize)
}

// ListReports godoc
// @Summary      List direct reports
// @Description  List the users whose manager is the given user
// @Tags         users
// @Produce      json
// @Param        id path string true "Manager ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]AuthUserResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/reports [get]
func (h *UserHandler) ListReports(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	managerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	reports, err := h.userService.ListReports(c.Request.Context(), companyID, managerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAuthUserResponses(reports))
}

// Update godoc
// @Summary      Update user profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body UpdateUserRequest true "Profile fields"
// @Success      200 {object} dto.Response{data=AuthUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), identityapp.UpdateUserInput{
		CompanyID: companyID,
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAuthUserResponse(*user))
}

// ChangeRole godoc
// @Summary      Change a user's role
// @Description  Admin promotes or demotes a user between roles
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body ChangeRoleRequest true "New role"
// @Success      200 {object} dto.Response{data=AuthUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/role [put]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	companyID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), identityapp.ChangeRoleInput{
		CompanyID: companyID,
		ActorID:   actorID,
		UserID:    userID,
		NewRole:   identity.Role(req.Role),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAuthUserResponse(*user))
}

// AssignManager godoc
// @Summary      Assign a manager
// @Description  Set or clear the user's manager relationship
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body AssignManagerRequest true "Manager ID or null"
// @Success      200 {object} dto.Response{data=AuthUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/manager [put]
func (h *UserHandler) AssignManager(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req AssignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := identityapp.AssignManagerInput{
		CompanyID: companyID,
		UserID:    userID,
	}
	if req.ManagerID != nil && *req.ManagerID != "" {
		managerID, err := uuid.Parse(*req.ManagerID)
		if err != nil {
			h.BadRequest(c, "Invalid manager ID format")
			return
		}
		input.ManagerID = &managerID
	}

	user, err := h.userService.AssignManager(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAuthUserResponse(*user))
}

// SetManagerApprover godoc
// @Summary      Toggle manager pre-approval
// @Description  Control whether the user's expenses go to their manager first
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Param        request body SetManagerApproverRequest true "Flag value"
// @Success      200 {object} dto.Response{data=AuthUserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/manager-approver [put]
func (h *UserHandler) SetManagerApprover(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	var req SetManagerApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.SetManagerApprover(c.Request.Context(), identityapp.SetManagerApproverInput{
		CompanyID:  companyID,
		UserID:     userID,
		IsApprover: *req.IsManagerApprover,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toAuthUserResponse(*user))
}

// Deactivate godoc
// @Summary      Deactivate a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id} [delete]
func (h *UserHandler) Deactivate(c *gin.Context) {
	companyID, actorID, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.userService.DeactivateUser(c.Request.Context(), companyID, actorID, userID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// Activate godoc
// @Summary      Reactivate a user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/activate [post]
func (h *UserHandler) Activate(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.userService.ActivateUser(c.Request.Context(), companyID, userID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "User activated"})
}

// Unlock godoc
// @Summary      Unlock a user
// @Description  Clear a lockout caused by failed login attempts
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID" format(uuid)
// @Success      200 {object} dto.Response{data=MessageData}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /users/{id}/unlock [post]
func (h *UserHandler) Unlock(c *gin.Context) {
	companyID, _, ok := h.identity(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid user ID format")
		return
	}

	if err := h.userService.UnlockUser(c.Request.Context(), companyID, userID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, MessageData{Message: "User unlocked"})
}
