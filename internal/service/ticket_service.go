package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	projects    repository.ProjectRepository
	history     repository.HistoryRepository
	feedback    repository.FeedbackRepository
	access      *access.Service
	dispatcher  events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	ProjectRepo    repository.ProjectRepository
	HistoryRepo    repository.HistoryRepository
	FeedbackRepo   repository.FeedbackRepository
	Access         *access.Service
	Dispatcher     events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		projects:    deps.ProjectRepo,
		history:     deps.HistoryRepo,
		feedback:    deps.FeedbackRepo,
		access:      deps.Access,
		dispatcher:  deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	ProjectID   string
	TypeID      string
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	ProjectID string
	Status    domain.TicketStatus
	Priority  domain.TicketPriority
	TypeID    string
	Mine      bool
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	Name       string
	StorageKey string
	MimeType   string
	SizeBytes  int64
}

// CreateTicket creates a ticket in a project the actor can access, with a
// type the project allows.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if input.Priority != "" && !validPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	project, err := s.loadProject(ctx, input.ProjectID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccessProject(actor, project) {
		return nil, apperrors.NewForbidden("project access denied")
	}
	if !project.AllowsTicketType(input.TypeID) {
		return nil, apperrors.NewValidationError("ticket type not allowed in project", map[string]any{
			"project_id": project.ID,
			"type_id":    input.TypeID,
		})
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusNew,
		Priority:    input.Priority,
		CreatorID:   actor.ID,
		ProjectID:   project.ID,
		TypeID:      input.TypeID,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityNormal
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordHistory(ctx, ticket.ID, &ticket.Status, "Ticket created", &actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			ProjectID: ticket.ProjectID,
			TypeID:    ticket.TypeID,
			Priority:  ticket.Priority,
			Title:     ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket with its attachments, enforcing project
// visibility.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Attachments = attachments
	return ticket, nil
}

// ListTickets returns tickets from projects the actor can see.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, input TicketListInput) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Status:   input.Status,
		Priority: input.Priority,
		TypeID:   input.TypeID,
	}
	if input.Mine {
		filter.CreatorID = actor.ID
	}

	if input.ProjectID != "" {
		project, err := s.loadProject(ctx, input.ProjectID)
		if err != nil {
			return nil, err
		}
		if !s.access.CanAccessProject(actor, project) {
			return nil, apperrors.NewForbidden("project access denied")
		}
		filter.ProjectIDs = []string{project.ID}
	} else {
		visible, err := s.access.AccessibleProjects(ctx, actor)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if len(visible) == 0 {
			return nil, nil
		}
		for _, project := range visible {
			filter.ProjectIDs = append(filter.ProjectIDs, project.ID)
		}
	}

	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ChangeStatus moves the ticket to a new lifecycle state. Resolving and
// reopening have dedicated operations with extra bookkeeping; this
// handles the rest.
func (s *TicketService) ChangeStatus(ctx context.Context, actor *domain.User, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	if newStatus == domain.TicketStatusResolved || newStatus == domain.TicketStatusReopened {
		return nil, apperrors.NewValidationError("use the resolve or reopen operation", map[string]any{"status": newStatus})
	}

	allowed, err := s.access.HasPermission(ctx, actor, domain.PermChangeStatus)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("status change not permitted")
	}

	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status == newStatus {
		return ticket, nil
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	details := fmt.Sprintf("Status changed from %s to %s", oldStatus, newStatus)
	if err := s.recordHistory(ctx, ticket.ID, &newStatus, details, &actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// Resolve marks the ticket resolved with a resolution text and stamps
// resolver and time. The ticket creator may resolve their own ticket;
// resolving an already resolved ticket overwrites the previous
// resolution.
func (s *TicketService) Resolve(ctx context.Context, actor *domain.User, ticketID, resolution string) (*domain.Ticket, error) {
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, apperrors.NewValidationError("resolution is required", nil)
	}

	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.CreatorID != actor.ID {
		allowed, err := s.access.HasPermission(ctx, actor, domain.PermChangeStatus)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !allowed {
			return nil, apperrors.NewForbidden("resolve not permitted")
		}
	}

	now := time.Now()
	ticket.Status = domain.TicketStatusResolved
	ticket.Resolution = &resolution
	ticket.ResolvedByID = &actor.ID
	ticket.ResolvedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	details := fmt.Sprintf("Resolved: %s", resolution)
	if err := s.recordHistory(ctx, ticket.ID, &ticket.Status, details, &actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketResolved,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketResolvedPayload{Resolution: resolution},
	})
	return ticket, nil
}

// Reopen returns a resolved ticket to the queue. Only resolved tickets
// can be reopened; the ticket creator may always reopen their own
// ticket.
func (s *TicketService) Reopen(ctx context.Context, actor *domain.User, ticketID, reason string) (*domain.Ticket, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reopen reason is required", nil)
	}

	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewConflict("only resolved tickets can be reopened", map[string]any{
			"status": ticket.Status,
		})
	}

	if ticket.CreatorID != actor.ID {
		allowed, err := s.access.HasPermission(ctx, actor, domain.PermChangeStatus)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !allowed {
			return nil, apperrors.NewForbidden("reopen not permitted")
		}
	}

	now := time.Now()
	ticket.Status = domain.TicketStatusReopened
	ticket.ReopenReason = &reason
	ticket.ReopenedByID = &actor.ID
	ticket.ReopenedAt = &now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	details := fmt.Sprintf("Reopened: %s", reason)
	if err := s.recordHistory(ctx, ticket.ID, &ticket.Status, details, &actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketReopened,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketReopenedPayload{Reason: reason},
	})
	return ticket, nil
}

// RateSatisfaction lets the ticket creator rate a resolved ticket from 1
// to 5. Re-rating overwrites the previous value.
func (s *TicketService) RateSatisfaction(ctx context.Context, actor *domain.User, ticketID string, rating int, comment string) (*domain.Ticket, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}

	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.CreatorID != actor.ID {
		return nil, apperrors.NewForbidden("only the ticket creator can rate satisfaction")
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewConflict("only resolved tickets can be rated", map[string]any{
			"status": ticket.Status,
		})
	}

	ticket.Satisfaction = &rating
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	record := &domain.Feedback{
		TicketID: ticket.ID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
		AuthorID: actor.ID,
	}
	if err := s.feedback.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	details := fmt.Sprintf("Satisfaction rated %d/5", rating)
	if err := s.recordHistory(ctx, ticket.ID, nil, details, &actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventSatisfactionRated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.SatisfactionRatedPayload{Rating: rating},
	})
	return ticket, nil
}

// AddComment appends a comment to a ticket the actor can see.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}

	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.CommentAddedPayload{
			CommentID:   comment.ID,
			AuthorID:    comment.AuthorID,
			BodyPreview: stringPreview(content, 50),
		},
	})
	return comment, nil
}

// ListComments returns a ticket's comments oldest first.
func (s *TicketService) ListComments(ctx context.Context, actor *domain.User, ticketID string) ([]domain.Comment, error) {
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

// AddAttachment records attachment metadata on a ticket.
func (s *TicketService) AddAttachment(ctx context.Context, actor *domain.User, ticketID string, input AttachmentInput) (*domain.Attachment, error) {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.StorageKey) == "" {
		return nil, apperrors.NewValidationError("attachment name and storage key are required", nil)
	}

	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		TicketID:   ticket.ID,
		Name:       input.Name,
		StorageKey: input.StorageKey,
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, apperrors.MapError(err)
	}
	return attachment, nil
}

// History returns the ticket's append-only change log.
func (s *TicketService) History(ctx context.Context, actor *domain.User, ticketID string) ([]domain.ChangeHistory, error) {
	ticket, err := s.loadAccessible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) loadProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

func (s *TicketService) loadAccessible(ctx context.Context, actor *domain.User, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	project, err := s.loadProject(ctx, ticket.ProjectID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccessProject(actor, project) {
		return nil, apperrors.NewForbidden("project access denied")
	}
	return ticket, nil
}

func (s *TicketService) recordHistory(ctx context.Context, ticketID string, status *domain.TicketStatus, details string, actorID *string) error {
	entry := &domain.ChangeHistory{
		TicketID:    ticketID,
		ChangeDate:  time.Now(),
		NewStatus:   status,
		Details:     details,
		ChangedByID: actorID,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func validPriority(p domain.TicketPriority) bool {
	switch p {
	case domain.TicketPriorityLow, domain.TicketPriorityNormal, domain.TicketPriorityHigh:
		return true
	}
	return false
}

func stringPreview(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
