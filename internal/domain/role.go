package domain

// RoleName identifies one of the seeded roles.
type RoleName string

const (
	RoleClient     RoleName = "CLIENT"
	RoleSpecialist RoleName = "SPECIALIST"
	RoleManager    RoleName = "MANAGER"
	RoleAnalyst    RoleName = "ANALYST"
	RoleDeveloper  RoleName = "DEVELOPER"
)

// Permission names granted to roles.
const (
	PermCreateTicket      = "CREATE_TICKET"
	PermViewTicket        = "VIEW_TICKET"
	PermChangeStatus      = "CHANGE_STATUS"
	PermManageProjects    = "MANAGE_PROJECTS"
	PermManageUsers       = "MANAGE_USERS"
	PermManageTicketTypes = "MANAGE_TICKET_TYPES"
	PermManageSuggestions = "MANAGE_SUGGESTIONS"
	PermGenerateReports   = "GENERATE_REPORTS"
	PermViewAnalytics     = "VIEW_ANALYTICS"
	PermManageSystem      = "MANAGE_SYSTEM"
)

// Role bundles a named role with its flattened permission set.
type Role struct {
	ID          string
	Name        RoleName
	Permissions []string
}

// HasPermission reports whether the role's permission set contains name.
func (r *Role) HasPermission(name string) bool {
	if r == nil {
		return false
	}
	for _, p := range r.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
