package domain

import "time"

// Project groups tickets and controls who can see them.
type Project struct {
	ID               string
	Name             string
	Key              string
	ManagerID        *string
	TicketTypeIDs    []string
	VisibleToRoleIDs []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AllowsTicketType reports whether the ticket type may be used for
// tickets in this project.
func (p *Project) AllowsTicketType(typeID string) bool {
	for _, id := range p.TicketTypeIDs {
		if id == typeID {
			return true
		}
	}
	return false
}

// VisibleToRole reports whether the project is visible to the role.
func (p *Project) VisibleToRole(roleID string) bool {
	for _, id := range p.VisibleToRoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// TicketType categorizes tickets within the projects that allow it.
type TicketType struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
