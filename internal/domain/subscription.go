package domain

import "time"

// Subscription registers a user for notifications on a single scope:
// exactly one of ProjectID and TicketID is set.
type Subscription struct {
	ID        string
	UserID    string
	ProjectID *string
	TicketID  *string
	CreatedAt time.Time
}
