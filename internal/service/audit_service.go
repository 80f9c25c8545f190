package service

import (
	"context"
	"encoding/json"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// AuditService writes every published domain event into the event log.
type AuditService struct {
	log repository.EventLogRepository
}

// NewAuditService constructs the service.
func NewAuditService(log repository.EventLogRepository) *AuditService {
	return &AuditService{log: log}
}

// RegisterHandlers subscribes the audit handler for all event types.
func (s *AuditService) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketResolved,
		events.EventTicketReopened,
		events.EventCommentAdded,
		events.EventSlaBreachDetected,
		events.EventSatisfactionRated,
		events.EventSuggestionCreated,
		events.EventSuggestionStatusChanged,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *AuditService) handle(ctx context.Context, event events.Event) error {
	details, err := json.Marshal(event.Payload)
	if err != nil {
		details = nil
	}

	entry := &domain.EventLog{
		Action:  string(event.Type),
		Details: string(details),
	}
	if event.ActorID != "" {
		actorID := event.ActorID
		entry.UserID = &actorID
	}
	return s.log.Create(ctx, entry)
}
