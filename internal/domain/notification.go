package domain

import "time"

// NotificationType tags the event kind a notification was created for.
type NotificationType string

const (
	NotifyNewTicket            NotificationType = "new_ticket"
	NotifyTicketStatusChange   NotificationType = "ticket_status_change"
	NotifyNewComment           NotificationType = "new_comment"
	NotifyProjectTicketComment NotificationType = "project_ticket_comment"
	NotifyTicketResolved       NotificationType = "ticket_resolved"
	NotifyTicketReopened       NotificationType = "ticket_reopened"
	NotifySlaBreach            NotificationType = "sla_breach"
	NotifySatisfactionRating   NotificationType = "satisfaction_rating"
	NotifySuggestionNew        NotificationType = "suggestion_new"
	NotifySuggestionAssigned   NotificationType = "suggestion_assigned"
	NotifySuggestionInfoNeeded NotificationType = "suggestion_info_needed"
	NotifySuggestionTestFailed NotificationType = "suggestion_test_failed"
	NotifySuggestionDeployed   NotificationType = "suggestion_deployed"
)

// Notification is a per-recipient message created by the fanout.
// Mutated only by read-marking; never deleted in normal operation.
type Notification struct {
	ID              string
	RecipientID     string
	Content         string
	Type            NotificationType
	Read            bool
	RelatedTicketID *string
	CreatedAt       time.Time
}
