package events

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated           EventType = "ticket_created"
	EventTicketStatusChanged     EventType = "ticket_status_changed"
	EventTicketResolved          EventType = "ticket_resolved"
	EventTicketReopened          EventType = "ticket_reopened"
	EventCommentAdded            EventType = "comment_added"
	EventSlaBreachDetected       EventType = "sla_breach_detected"
	EventSatisfactionRated       EventType = "satisfaction_rated"
	EventSuggestionCreated       EventType = "suggestion_created"
	EventSuggestionStatusChanged EventType = "suggestion_status_changed"
)

// Event represents a domain event emitted by services after the
// originating change has been persisted.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ProjectID string                `json:"project_id"`
	TypeID    string                `json:"type_id"`
	Priority  domain.TicketPriority `json:"priority"`
	Title     string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketResolvedPayload payload.
type TicketResolvedPayload struct {
	Resolution string `json:"resolution"`
}

// TicketReopenedPayload payload.
type TicketReopenedPayload struct {
	Reason string `json:"reason"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	AuthorID    string `json:"author_id"`
	BodyPreview string `json:"body_preview"`
}

// SlaBreachDetectedPayload payload.
type SlaBreachDetectedPayload struct {
	Kind       domain.BreachKind `json:"kind"`
	ElapsedMin int               `json:"elapsed_min"`
	BudgetMin  int               `json:"budget_min"`
}

// SatisfactionRatedPayload payload.
type SatisfactionRatedPayload struct {
	Rating int `json:"rating"`
}

// SuggestionCreatedPayload payload.
type SuggestionCreatedPayload struct {
	SuggestionID string `json:"suggestion_id"`
}

// SuggestionStatusChangedPayload payload.
type SuggestionStatusChangedPayload struct {
	SuggestionID string                  `json:"suggestion_id"`
	OldStatus    domain.SuggestionStatus `json:"old_status"`
	NewStatus    domain.SuggestionStatus `json:"new_status"`
}
