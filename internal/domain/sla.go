package domain

import "time"

// SlaPolicy holds the response and resolution budgets, in minutes, for
// one (ticket type, priority) pair. Reference data, never mutated by
// ticket processing.
type SlaPolicy struct {
	ID             string
	TicketTypeID   string
	Priority       TicketPriority
	ResponseTime   int
	ResolutionTime int
}

// BreachKind distinguishes the SLA budgets a ticket can violate.
type BreachKind string

const (
	// BreachResponse: the first response arrived past the response budget.
	BreachResponse BreachKind = "response"
	// BreachResolution: the ticket was resolved past the resolution budget.
	BreachResolution BreachKind = "resolution"
	// BreachResolutionPending: the ticket is still open past the
	// resolution budget.
	BreachResolutionPending BreachKind = "resolution_pending"
)

// SlaBreach records that a breach of the given kind was already
// detected for a ticket. At most one row exists per (ticket, kind);
// the evaluator checks this before appending a second history entry.
type SlaBreach struct {
	ID         string
	TicketID   string
	Kind       BreachKind
	ElapsedMin int
	BudgetMin  int
	RecordedAt time.Time
}
