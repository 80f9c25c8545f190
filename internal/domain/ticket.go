package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew        TicketStatus = "new"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusReopened   TicketStatus = "reopened"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidStatus reports whether s is one of the known lifecycle states.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusNew, TicketStatusInProgress, TicketStatusResolved,
		TicketStatusReopened, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority selects the SLA policy together with the ticket type.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityNormal TicketPriority = "normal"
	TicketPriorityHigh   TicketPriority = "high"
)

// Ticket is the aggregate for support requests.
type Ticket struct {
	ID           string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	CreatorID    string
	ProjectID    string
	TypeID       string
	Resolution   *string
	ResolvedByID *string
	ResolvedAt   *time.Time
	ReopenReason *string
	ReopenedByID *string
	ReopenedAt   *time.Time
	Satisfaction *int
	Attachments  []Attachment
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EffectivePriority returns the ticket priority, defaulting to normal
// when unset.
func (t *Ticket) EffectivePriority() TicketPriority {
	if t.Priority == "" {
		return TicketPriorityNormal
	}
	return t.Priority
}

// Attachment stores metadata for a file attached to a ticket. Blob
// bytes live in external storage keyed by StorageKey.
type Attachment struct {
	ID         string
	TicketID   string
	Name       string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
