package worker

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

// StartEventWorkers registers the post-commit event handlers: the
// notification fanout, the audit trail, and re-evaluation of SLA budgets
// whenever a comment lands, a status changes, or a ticket is resolved.
func StartEventWorkers(dispatcher events.Dispatcher, notifications *service.NotificationService, audit *service.AuditService, sla *service.SlaService, tickets repository.TicketRepository) {
	if notifications != nil {
		notifications.RegisterHandlers(dispatcher)
	}
	if audit != nil {
		audit.RegisterHandlers(dispatcher)
	}
	if sla != nil && tickets != nil {
		reevaluate := func(ctx context.Context, event events.Event) error {
			ticket, err := tickets.GetByID(ctx, event.TicketID)
			if err != nil {
				return err
			}
			_, err = sla.EvaluateTicket(ctx, ticket)
			return err
		}
		dispatcher.Subscribe(events.EventCommentAdded, reevaluate)
		dispatcher.Subscribe(events.EventTicketStatusChanged, reevaluate)
		dispatcher.Subscribe(events.EventTicketResolved, reevaluate)
	}
}
