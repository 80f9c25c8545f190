package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ProjectRequest payload for create and update.
type ProjectRequest struct {
	Name             string   `json:"name"`
	Key              string   `json:"key"`
	ManagerID        *string  `json:"manager_id"`
	TicketTypeIDs    []string `json:"ticket_type_ids"`
	VisibleToRoleIDs []string `json:"visible_to_role_ids"`
}

// ProjectResponse response.
type ProjectResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Key              string    `json:"key"`
	ManagerID        *string   `json:"manager_id"`
	TicketTypeIDs    []string  `json:"ticket_type_ids"`
	VisibleToRoleIDs []string  `json:"visible_to_role_ids"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateTicketTypeRequest payload.
type CreateTicketTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// TicketTypeResponse response.
type TicketTypeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SlaPolicyRequest payload.
type SlaPolicyRequest struct {
	TicketTypeID   string                `json:"ticket_type_id"`
	Priority       domain.TicketPriority `json:"priority"`
	ResponseTime   int                   `json:"response_time"`
	ResolutionTime int                   `json:"resolution_time"`
}

// SlaPolicyResponse response.
type SlaPolicyResponse struct {
	ID             string                `json:"id"`
	TicketTypeID   string                `json:"ticket_type_id"`
	Priority       domain.TicketPriority `json:"priority"`
	ResponseTime   int                   `json:"response_time"`
	ResolutionTime int                   `json:"resolution_time"`
}
