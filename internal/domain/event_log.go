package domain

import "time"

// EventLog is an append-only record of user actions, kept separately
// from per-ticket change history.
type EventLog struct {
	ID        string
	Action    string
	UserID    *string
	Details   string
	Timestamp time.Time
}
