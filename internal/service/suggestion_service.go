package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SuggestionService runs the improvement suggestion workflow: anyone may
// file one, a manager assigns it to a developer, the developer moves it
// through the pipeline, and the manager signs off on deployment.
type SuggestionService struct {
	suggestions  repository.SuggestionRepository
	users        repository.UserRepository
	access       *access.Service
	notification *NotificationService
	dispatcher   events.Dispatcher
}

// NewSuggestionService constructs the service.
func NewSuggestionService(suggestions repository.SuggestionRepository, users repository.UserRepository, accessSvc *access.Service, notification *NotificationService, dispatcher events.Dispatcher) *SuggestionService {
	return &SuggestionService{
		suggestions:  suggestions,
		users:        users,
		access:       accessSvc,
		notification: notification,
		dispatcher:   dispatcher,
	}
}

// Create files a new suggestion.
func (s *SuggestionService) Create(ctx context.Context, actor *domain.User, content string) (*domain.Suggestion, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("suggestion content is required", nil)
	}

	suggestion := &domain.Suggestion{
		Content:  content,
		Status:   domain.SuggestionStatusNew,
		AuthorID: actor.ID,
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, apperrors.MapError(err)
	}

	developers, err := s.users.ListByRoleNames(ctx, []domain.RoleName{domain.RoleDeveloper})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	notice := fmt.Sprintf("New suggestion filed: %s", stringPreview(content, 80))
	for _, developer := range developers {
		if developer.ID == actor.ID {
			continue
		}
		if err := s.notification.Notify(ctx, developer.ID, notice, domain.NotifySuggestionNew, nil); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.Event{
		Type:    events.EventSuggestionCreated,
		ActorID: actor.ID,
		Payload: events.SuggestionCreatedPayload{SuggestionID: suggestion.ID},
	})
	return suggestion, nil
}

// List returns all suggestions for callers allowed to manage them, and
// only the actor's own otherwise.
func (s *SuggestionService) List(ctx context.Context, actor *domain.User) ([]domain.Suggestion, error) {
	all, err := s.suggestions.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageSuggestions)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if allowed || actor.RoleName() == domain.RoleDeveloper {
		return all, nil
	}

	var own []domain.Suggestion
	for _, suggestion := range all {
		if suggestion.AuthorID == actor.ID {
			own = append(own, suggestion)
		}
	}
	return own, nil
}

// Assign hands a suggestion to a developer.
func (s *SuggestionService) Assign(ctx context.Context, actor *domain.User, suggestionID, developerID string) (*domain.Suggestion, error) {
	if err := s.requireManagement(ctx, actor); err != nil {
		return nil, err
	}
	suggestion, err := s.get(ctx, suggestionID)
	if err != nil {
		return nil, err
	}

	developer, err := s.users.GetByID(ctx, developerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": developerID})
		}
		return nil, apperrors.MapError(err)
	}
	if developer.RoleName() != domain.RoleDeveloper {
		return nil, apperrors.NewValidationError("assignee must be a developer", map[string]any{"user_id": developerID})
	}

	if err := s.transition(ctx, actor, suggestion, domain.SuggestionStatusAssigned, func() {
		suggestion.DeveloperID = &developer.ID
	}); err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Suggestion assigned to you: %s", stringPreview(suggestion.Content, 80))
	if err := s.notification.Notify(ctx, developer.ID, content, domain.NotifySuggestionAssigned, nil); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// RequestInfo is used by the assigned developer to ask the author for
// more detail.
func (s *SuggestionService) RequestInfo(ctx context.Context, actor *domain.User, suggestionID string) (*domain.Suggestion, error) {
	suggestion, err := s.get(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignee(actor, suggestion); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, suggestion, domain.SuggestionStatusNeedsInfo, nil); err != nil {
		return nil, err
	}

	content := fmt.Sprintf("More information requested on your suggestion: %s", stringPreview(suggestion.Content, 80))
	if err := s.notification.Notify(ctx, suggestion.AuthorID, content, domain.NotifySuggestionInfoNeeded, nil); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// MarkReady is used by the assigned developer once the work is done.
func (s *SuggestionService) MarkReady(ctx context.Context, actor *domain.User, suggestionID string) (*domain.Suggestion, error) {
	suggestion, err := s.get(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAssignee(actor, suggestion); err != nil {
		return nil, err
	}
	if err := s.transition(ctx, actor, suggestion, domain.SuggestionStatusReadyToDeploy, nil); err != nil {
		return nil, err
	}
	return suggestion, nil
}

// SignOff closes out a suggestion awaiting deployment. Deployed notifies
// the author of success; needs_revision sends it back to the developer.
func (s *SuggestionService) SignOff(ctx context.Context, actor *domain.User, suggestionID string, deployed bool) (*domain.Suggestion, error) {
	if err := s.requireManagement(ctx, actor); err != nil {
		return nil, err
	}
	suggestion, err := s.get(ctx, suggestionID)
	if err != nil {
		return nil, err
	}
	if suggestion.Status != domain.SuggestionStatusReadyToDeploy {
		return nil, apperrors.NewConflict("suggestion is not awaiting deployment", map[string]any{
			"status": suggestion.Status,
		})
	}

	if deployed {
		if err := s.transition(ctx, actor, suggestion, domain.SuggestionStatusDeployed, nil); err != nil {
			return nil, err
		}
		content := fmt.Sprintf("Your suggestion was deployed: %s", stringPreview(suggestion.Content, 80))
		if err := s.notification.Notify(ctx, suggestion.AuthorID, content, domain.NotifySuggestionDeployed, nil); err != nil {
			return nil, err
		}
		return suggestion, nil
	}

	if err := s.transition(ctx, actor, suggestion, domain.SuggestionStatusNeedsRevision, nil); err != nil {
		return nil, err
	}
	if suggestion.DeveloperID != nil {
		content := fmt.Sprintf("Suggestion failed verification: %s", stringPreview(suggestion.Content, 80))
		if err := s.notification.Notify(ctx, *suggestion.DeveloperID, content, domain.NotifySuggestionTestFailed, nil); err != nil {
			return nil, err
		}
	}
	return suggestion, nil
}

func (s *SuggestionService) get(ctx context.Context, suggestionID string) (*domain.Suggestion, error) {
	suggestion, err := s.suggestions.GetByID(ctx, suggestionID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("suggestion", map[string]any{"suggestion_id": suggestionID})
		}
		return nil, apperrors.MapError(err)
	}
	return suggestion, nil
}

func (s *SuggestionService) transition(ctx context.Context, actor *domain.User, suggestion *domain.Suggestion, newStatus domain.SuggestionStatus, mutate func()) error {
	oldStatus := suggestion.Status
	suggestion.Status = newStatus
	if mutate != nil {
		mutate()
	}
	if err := s.suggestions.Update(ctx, suggestion); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventSuggestionStatusChanged,
		ActorID: actor.ID,
		Payload: events.SuggestionStatusChangedPayload{
			SuggestionID: suggestion.ID,
			OldStatus:    oldStatus,
			NewStatus:    newStatus,
		},
	})
	return nil
}

func (s *SuggestionService) requireManagement(ctx context.Context, actor *domain.User) error {
	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageSuggestions)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("suggestion management not permitted")
	}
	return nil
}

func (s *SuggestionService) requireAssignee(actor *domain.User, suggestion *domain.Suggestion) error {
	if suggestion.DeveloperID == nil || *suggestion.DeveloperID != actor.ID {
		return apperrors.NewForbidden("only the assigned developer may do this")
	}
	return nil
}

func (s *SuggestionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
