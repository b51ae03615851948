package identity

// Role represents a user's role within their company
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleManager  Role = "MANAGER"
	RoleEmployee Role = "EMPLOYEE"
)

// IsValid returns true if the role is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	default:
		return false
	}
}

// CanManageUsers returns true if the role may administer users,
// approval flows and rules
func (r Role) CanManageUsers() bool {
	return r == RoleAdmin
}

// CanApprove returns true if the role may act as an approver in a flow
func (r Role) CanApprove() bool {
	return r == RoleAdmin || r == RoleManager
}

// CanViewCompanyExpenses returns true if the role may list expenses
// beyond its own
func (r Role) CanViewCompanyExpenses() bool {
	return r == RoleAdmin || r == RoleManager
}
