package domain

import "time"

// Feedback is a satisfaction rating left by a ticket's creator after
// resolution.
type Feedback struct {
	ID        string
	TicketID  string
	Rating    int
	Comment   string
	AuthorID  string
	CreatedAt time.Time
}
