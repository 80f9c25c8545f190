package domain

import "time"

// Comment is a post in a ticket's discussion thread. The earliest
// comment authored by someone other than the creator counts as the
// ticket's first response for SLA purposes.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}
