package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SubscriptionService manages ticket and project subscriptions.
// Subscribing twice to the same scope is a conflict; unsubscribing an
// absent subscription is a no-op.
type SubscriptionService struct {
	subscriptions repository.SubscriptionRepository
	tickets       repository.TicketRepository
	projects      repository.ProjectRepository
	access        *access.Service
}

// NewSubscriptionService constructs the service.
func NewSubscriptionService(subscriptions repository.SubscriptionRepository, tickets repository.TicketRepository, projects repository.ProjectRepository, accessSvc *access.Service) *SubscriptionService {
	return &SubscriptionService{
		subscriptions: subscriptions,
		tickets:       tickets,
		projects:      projects,
		access:        accessSvc,
	}
}

// SubscribeTicket subscribes the actor to a single ticket.
func (s *SubscriptionService) SubscribeTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Subscription, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	project, err := s.projects.GetByID(ctx, ticket.ProjectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !s.access.CanAccessProject(actor, project) {
		return nil, apperrors.NewForbidden("project access denied")
	}

	existing, err := s.subscriptions.FindByUserAndTicket(ctx, actor.ID, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("already subscribed to ticket", map[string]any{"ticket_id": ticketID})
	}

	sub := &domain.Subscription{UserID: actor.ID, TicketID: &ticket.ID}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// SubscribeProject subscribes the actor to every ticket event in a
// project.
func (s *SubscriptionService) SubscribeProject(ctx context.Context, actor *domain.User, projectID string) (*domain.Subscription, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return nil, apperrors.MapError(err)
	}
	if !s.access.CanAccessProject(actor, project) {
		return nil, apperrors.NewForbidden("project access denied")
	}

	existing, err := s.subscriptions.FindByUserAndProject(ctx, actor.ID, projectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("already subscribed to project", map[string]any{"project_id": projectID})
	}

	sub := &domain.Subscription{UserID: actor.ID, ProjectID: &project.ID}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sub, nil
}

// UnsubscribeTicket removes the actor's ticket subscription if present.
func (s *SubscriptionService) UnsubscribeTicket(ctx context.Context, actor *domain.User, ticketID string) error {
	existing, err := s.subscriptions.FindByUserAndTicket(ctx, actor.ID, ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if existing == nil {
		return nil
	}
	return apperrors.MapError(s.subscriptions.Delete(ctx, existing.ID))
}

// UnsubscribeProject removes the actor's project subscription if present.
func (s *SubscriptionService) UnsubscribeProject(ctx context.Context, actor *domain.User, projectID string) error {
	existing, err := s.subscriptions.FindByUserAndProject(ctx, actor.ID, projectID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if existing == nil {
		return nil
	}
	return apperrors.MapError(s.subscriptions.Delete(ctx, existing.ID))
}

// ListForUser returns the actor's subscriptions.
func (s *SubscriptionService) ListForUser(ctx context.Context, actor *domain.User) ([]domain.Subscription, error) {
	subs, err := s.subscriptions.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return subs, nil
}
