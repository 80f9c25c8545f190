package domain

import "time"

// ChangeHistory is an immutable audit trail entry. Entries are only
// ever appended; nothing updates or deletes them.
type ChangeHistory struct {
	ID          string
	TicketID    string
	ChangeDate  time.Time
	NewStatus   *TicketStatus
	Details     string
	ChangedByID *string
}
