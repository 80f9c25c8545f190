package domain

import "time"

// SuggestionStatus tracks a suggestion through triage and deployment.
type SuggestionStatus string

const (
	SuggestionStatusNew           SuggestionStatus = "new"
	SuggestionStatusAssigned      SuggestionStatus = "assigned"
	SuggestionStatusNeedsInfo     SuggestionStatus = "needs_info"
	SuggestionStatusReadyToDeploy SuggestionStatus = "ready_for_deployment"
	SuggestionStatusNeedsRevision SuggestionStatus = "needs_revision"
	SuggestionStatusDeployed      SuggestionStatus = "deployed"
)

// Suggestion is an improvement proposal submitted by any user and
// worked by an assigned developer.
type Suggestion struct {
	ID          string
	Content     string
	Status      SuggestionStatus
	AuthorID    string
	DeveloperID *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
