package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ProjectID   string                `json:"project_id"`
	TypeID      string                `json:"type_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	Resolution string `json:"resolution"`
}

// ReopenTicketRequest payload.
type ReopenTicketRequest struct {
	Reason string `json:"reason"`
}

// RateTicketRequest payload.
type RateTicketRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CreateAttachmentRequest payload.
type CreateAttachmentRequest struct {
	Name       string `json:"name"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TicketSummary response.
type TicketSummary struct {
	ID        string                `json:"id"`
	ProjectID string                `json:"project_id"`
	TypeID    string                `json:"type_id"`
	Title     string                `json:"title"`
	Status    domain.TicketStatus   `json:"status"`
	Priority  domain.TicketPriority `json:"priority"`
	CreatorID string                `json:"creator_id"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description  string               `json:"description"`
	Resolution   *string              `json:"resolution"`
	ResolvedByID *string              `json:"resolved_by_id"`
	ResolvedAt   *time.Time           `json:"resolved_at"`
	ReopenReason *string              `json:"reopen_reason"`
	Satisfaction *int                 `json:"satisfaction"`
	Attachments  []AttachmentResponse `json:"attachments"`
}

// CommentResponse response.
type CommentResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// HistoryEntryResponse response.
type HistoryEntryResponse struct {
	ID          string               `json:"id"`
	ChangeDate  time.Time            `json:"change_date"`
	NewStatus   *domain.TicketStatus `json:"new_status"`
	Details     string               `json:"details"`
	ChangedByID *string              `json:"changed_by_id"`
}
