package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Login    string          `json:"login"`
	Password string          `json:"password"`
	Role     domain.RoleName `json:"role,omitempty"`
}

// LoginRequest payload.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse carries a signed token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// UserResponse response. Password hashes never leave the service.
type UserResponse struct {
	ID        string          `json:"id"`
	Login     string          `json:"login"`
	Role      domain.RoleName `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// UpdateProfileRequest payload. Empty fields are left untouched.
type UpdateProfileRequest struct {
	Login           string `json:"login,omitempty"`
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password,omitempty"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.RoleName `json:"role"`
}

// NotificationResponse response.
type NotificationResponse struct {
	ID              string                  `json:"id"`
	Content         string                  `json:"content"`
	Type            domain.NotificationType `json:"type"`
	Read            bool                    `json:"read"`
	RelatedTicketID *string                 `json:"related_ticket_id"`
	CreatedAt       time.Time               `json:"created_at"`
}

// SubscriptionResponse response.
type SubscriptionResponse struct {
	ID        string    `json:"id"`
	ProjectID *string   `json:"project_id"`
	TicketID  *string   `json:"ticket_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateSuggestionRequest payload.
type CreateSuggestionRequest struct {
	Content string `json:"content"`
}

// AssignSuggestionRequest payload.
type AssignSuggestionRequest struct {
	DeveloperID string `json:"developer_id"`
}

// SignOffSuggestionRequest payload.
type SignOffSuggestionRequest struct {
	Deployed bool `json:"deployed"`
}

// SuggestionResponse response.
type SuggestionResponse struct {
	ID          string                  `json:"id"`
	Content     string                  `json:"content"`
	Status      domain.SuggestionStatus `json:"status"`
	AuthorID    string                  `json:"author_id"`
	DeveloperID *string                 `json:"developer_id"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}
