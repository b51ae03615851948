package handler

// =====================
// User Request DTOs
// =====================

// CreateUserRequest represents the request body for an admin creating a user
type CreateUserRequest struct {
	FirstName string  `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string  `json:"last_name" binding:"required,min=1,max=100"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8,max=128"`
	Role      string  `json:"role" binding:"required,oneof=ADMIN MANAGER EMPLOYEE"`
	ManagerID *string `json:"manager_id,omitempty" binding:"omitempty,uuid"`
}

// UpdateUserRequest represents the request body for profile updates
type UpdateUserRequest struct {
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"required,min=1,max=100"`
}

// ChangeRoleRequest represents the request body for changing a user's role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=ADMIN MANAGER EMPLOYEE"`
}

// AssignManagerRequest represents the request body for the manager relationship.
// A null manager_id clears the relationship.
type AssignManagerRequest struct {
	ManagerID *string `json:"manager_id" binding:"omitempty,uuid"`
}

// SetManagerApproverRequest toggles manager pre-approval for a user's expenses
type SetManagerApproverRequest struct {
	IsManagerApprover *bool `json:"is_manager_approver" binding:"required"`
}

// ListUsersQuery represents the query parameters for a user listing
type ListUsersQuery struct {
	Keyword   string `form:"keyword"`
	Role      string `form:"role" binding:"omitempty,oneof=ADMIN MANAGER EMPLOYEE"`
	Status    string `form:"status" binding:"omitempty,oneof=active locked deactivated"`
	ManagerID string `form:"manager_id" binding:"omitempty,uuid"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}
