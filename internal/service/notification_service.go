package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const unreadCacheTTL = 24 * time.Hour

func unreadCacheKey(userID string) string {
	return "notif:unread:" + userID
}

// NotificationService creates notifications and routes ticket events to
// their recipients. Status changes and comments fan out to the union of
// ticket and project subscribers with the acting user removed, so a user
// subscribed at both scopes is notified exactly once. Resolve, reopen,
// and satisfaction events instead go directly to their counterpart: the
// creator on resolve, the resolver on reopen and rating.
type NotificationService struct {
	notifications repository.NotificationRepository
	subscriptions repository.SubscriptionRepository
	tickets       repository.TicketRepository
	projects      repository.ProjectRepository
	users         repository.UserRepository
	cache         *redis.Client
	logger        *zap.Logger
}

// NotificationDependencies bundles collaborators for the service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	SubscriptionRepo repository.SubscriptionRepository
	TicketRepo       repository.TicketRepository
	ProjectRepo      repository.ProjectRepository
	UserRepo         repository.UserRepository
	Cache            *redis.Client
	Logger           *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	return &NotificationService{
		notifications: deps.NotificationRepo,
		subscriptions: deps.SubscriptionRepo,
		tickets:       deps.TicketRepo,
		projects:      deps.ProjectRepo,
		users:         deps.UserRepo,
		cache:         deps.Cache,
		logger:        deps.Logger,
	}
}

// Notify persists a single notification and bumps the recipient's unread
// counter.
func (s *NotificationService) Notify(ctx context.Context, recipientID, content string, notifType domain.NotificationType, ticketID *string) error {
	notification := &domain.Notification{
		RecipientID:     recipientID,
		Content:         content,
		Type:            notifType,
		RelatedTicketID: ticketID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return err
	}
	s.bumpUnread(ctx, recipientID, 1)
	return nil
}

// ListForUser returns the user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	list, err := s.notifications.ListByRecipient(ctx, userID, unreadOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, notificationID, userID); err != nil {
		return apperrors.MapError(err)
	}
	s.bumpUnread(ctx, userID, -1)
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return apperrors.MapError(err)
	}
	s.resetUnread(ctx, userID)
	return nil
}

// UnreadCount returns the user's unread notification count, served from
// the cache when warm.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, unreadCacheKey(userID)).Int(); err == nil {
			return cached, nil
		}
	}
	count, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, unreadCacheKey(userID), count, unreadCacheTTL).Err(); err != nil {
			s.logger.Warn("unread cache set failed", zap.Error(err))
		}
	}
	return count, nil
}

func (s *NotificationService) bumpUnread(ctx context.Context, userID string, delta int64) {
	if s.cache == nil {
		return
	}
	key := unreadCacheKey(userID)
	// only adjust a warm counter; a cold one is rebuilt on next read
	exists, err := s.cache.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}
	if err := s.cache.IncrBy(ctx, key, delta).Err(); err != nil {
		s.logger.Warn("unread cache incr failed", zap.Error(err))
	}
}

func (s *NotificationService) resetUnread(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, unreadCacheKey(userID)).Err(); err != nil {
		s.logger.Warn("unread cache del failed", zap.Error(err))
	}
}

// ticketEventTemplate maps a ticket event to the notification it produces.
type ticketEventTemplate struct {
	notifType domain.NotificationType
	render    func(ticket *domain.Ticket, event events.Event) string
}

var ticketEventTemplates = map[events.EventType]ticketEventTemplate{
	events.EventTicketStatusChanged: {
		notifType: domain.NotifyTicketStatusChange,
		render: func(ticket *domain.Ticket, event events.Event) string {
			payload, _ := event.Payload.(events.TicketStatusChangedPayload)
			return fmt.Sprintf("Ticket %q status changed to %s", ticket.Title, payload.NewStatus)
		},
	},
	events.EventCommentAdded: {
		notifType: domain.NotifyNewComment,
		render: func(ticket *domain.Ticket, event events.Event) string {
			return fmt.Sprintf("New comment on ticket %q", ticket.Title)
		},
	},
}

// RegisterHandlers subscribes the notification handlers on the
// dispatcher.
func (s *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, s.handleTicketCreated)
	for eventType := range ticketEventTemplates {
		dispatcher.Subscribe(eventType, s.handleTicketEvent)
	}
	dispatcher.Subscribe(events.EventTicketResolved, s.handleTicketResolved)
	dispatcher.Subscribe(events.EventTicketReopened, s.handleTicketReopened)
	dispatcher.Subscribe(events.EventSatisfactionRated, s.handleSatisfactionRated)
	dispatcher.Subscribe(events.EventSlaBreachDetected, s.handleSlaBreach)
}

// handleTicketCreated notifies the project manager first, then the
// project subscribers, skipping the creator.
func (s *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	project, err := s.projects.GetByID(ctx, ticket.ProjectID)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("New ticket %q in project %q", ticket.Title, project.Name)
	notified := map[string]struct{}{event.ActorID: {}}

	if project.ManagerID != nil {
		if _, seen := notified[*project.ManagerID]; !seen {
			if err := s.Notify(ctx, *project.ManagerID, content, domain.NotifyNewTicket, &ticket.ID); err != nil {
				return err
			}
			notified[*project.ManagerID] = struct{}{}
		}
	}

	subscribers, err := s.subscriptions.SubscriberIDsForProject(ctx, project.ID)
	if err != nil {
		return err
	}
	for _, userID := range subscribers {
		if _, seen := notified[userID]; seen {
			continue
		}
		if err := s.Notify(ctx, userID, content, domain.NotifyNewTicket, &ticket.ID); err != nil {
			return err
		}
		notified[userID] = struct{}{}
	}
	return nil
}

// handleTicketEvent fans a ticket event out to ticket and project
// subscribers, excluding the actor.
func (s *NotificationService) handleTicketEvent(ctx context.Context, event events.Event) error {
	template, ok := ticketEventTemplates[event.Type]
	if !ok {
		return nil
	}
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	recipients, err := s.fanoutRecipients(ctx, ticket, event.ActorID)
	if err != nil {
		return err
	}

	content := template.render(ticket, event)
	for _, userID := range recipients {
		if err := s.Notify(ctx, userID, content, template.notifType, &ticket.ID); err != nil {
			return err
		}
	}
	return nil
}

// handleTicketResolved tells the ticket creator their ticket was
// resolved. Nothing is sent when the creator resolved it themselves.
func (s *NotificationService) handleTicketResolved(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	if ticket.CreatorID == "" || ticket.CreatorID == event.ActorID {
		return nil
	}
	payload, _ := event.Payload.(events.TicketResolvedPayload)
	content := fmt.Sprintf("Your ticket %q was resolved: %s", ticket.Title, payload.Resolution)
	return s.Notify(ctx, ticket.CreatorID, content, domain.NotifyTicketResolved, &ticket.ID)
}

// handleTicketReopened tells the resolver their resolution was sent back.
func (s *NotificationService) handleTicketReopened(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	if ticket.ResolvedByID == nil || *ticket.ResolvedByID == event.ActorID {
		return nil
	}
	payload, _ := event.Payload.(events.TicketReopenedPayload)
	content := fmt.Sprintf("Ticket %q was reopened: %s", ticket.Title, payload.Reason)
	return s.Notify(ctx, *ticket.ResolvedByID, content, domain.NotifyTicketReopened, &ticket.ID)
}

// handleSatisfactionRated tells the resolver how their resolution was
// rated.
func (s *NotificationService) handleSatisfactionRated(ctx context.Context, event events.Event) error {
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}
	if ticket.ResolvedByID == nil || *ticket.ResolvedByID == event.ActorID {
		return nil
	}
	payload, _ := event.Payload.(events.SatisfactionRatedPayload)
	content := fmt.Sprintf("Ticket %q was rated %d/5", ticket.Title, payload.Rating)
	return s.Notify(ctx, *ticket.ResolvedByID, content, domain.NotifySatisfactionRating, &ticket.ID)
}

// handleSlaBreach alerts every specialist and manager when a ticket blows
// its resolution budget while still unresolved. Response and
// after-the-fact resolution breaches only land in the ticket history.
func (s *NotificationService) handleSlaBreach(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.SlaBreachDetectedPayload)
	if payload.Kind != domain.BreachResolutionPending {
		return nil
	}
	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		return err
	}

	staff, err := s.users.ListByRoleNames(ctx, []domain.RoleName{domain.RoleSpecialist, domain.RoleManager})
	if err != nil {
		return err
	}

	content := fmt.Sprintf("SLA %s breach on ticket %q: %dm elapsed of %dm budget",
		payload.Kind, ticket.Title, payload.ElapsedMin, payload.BudgetMin)
	for _, user := range staff {
		if err := s.Notify(ctx, user.ID, content, domain.NotifySlaBreach, &ticket.ID); err != nil {
			return err
		}
	}
	return nil
}

// fanoutRecipients unions ticket and project subscriber sets and drops
// the actor.
func (s *NotificationService) fanoutRecipients(ctx context.Context, ticket *domain.Ticket, actorID string) ([]string, error) {
	ticketSubs, err := s.subscriptions.SubscriberIDsForTicket(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	projectSubs, err := s.subscriptions.SubscriberIDsForProject(ctx, ticket.ProjectID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	if actorID != "" {
		seen[actorID] = struct{}{}
	}
	var recipients []string
	for _, userID := range append(ticketSubs, projectSubs...) {
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, userID)
	}
	return recipients, nil
}
