package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func managerUser(id string) *domain.User {
	return &domain.User{ID: id, Role: &domain.Role{ID: "r-manager", Name: domain.RoleManager}}
}

func clientUser(id string) *domain.User {
	return &domain.User{
		ID:     id,
		RoleID: "r-client",
		Role: &domain.Role{
			ID:          "r-client",
			Name:        domain.RoleClient,
			Permissions: []string{domain.PermCreateTicket, domain.PermViewTicket},
		},
	}
}

type ticketFixture struct {
	svc        *TicketService
	tickets    *fakeTicketRepo
	history    *fakeHistoryRepo
	feedback   *fakeFeedbackRepo
	dispatcher *fakeDispatcher
}

func newTicketFixture(projects *fakeProjectRepo, tickets *fakeTicketRepo) *ticketFixture {
	history := &fakeHistoryRepo{}
	feedback := &fakeFeedbackRepo{}
	dispatcher := &fakeDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CommentRepo:    &fakeCommentRepo{},
		AttachmentRepo: &fakeAttachmentRepo{},
		ProjectRepo:    projects,
		HistoryRepo:    history,
		FeedbackRepo:   feedback,
		Access:         access.NewService(projects),
		Dispatcher:     dispatcher,
	})
	return &ticketFixture{svc: svc, tickets: tickets, history: history, feedback: feedback, dispatcher: dispatcher}
}

func visibleProject(id string, typeIDs, roleIDs []string) *fakeProjectRepo {
	return &fakeProjectRepo{
		GetByIDFn: func(ctx context.Context, projectID string) (*domain.Project, error) {
			return &domain.Project{ID: id, Name: "Support", Key: "SUP", TicketTypeIDs: typeIDs, VisibleToRoleIDs: roleIDs}, nil
		},
	}
}

func TestCreateTicketRejectsDisallowedType(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", []string{"bug"}, []string{"r-client"}), &fakeTicketRepo{})

	_, err := fx.svc.CreateTicket(context.Background(), clientUser("u1"), TicketCreateInput{
		ProjectID: "p1",
		TypeID:    "feature",
		Title:     "please add dark mode",
	})

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	assert.Empty(t, fx.dispatcher.Published)
}

func TestCreateTicketDefaultsPriorityAndPublishes(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", []string{"bug"}, []string{"r-client"}), &fakeTicketRepo{
		CreateFn: func(ctx context.Context, ticket *domain.Ticket) error {
			ticket.ID = "t1"
			return nil
		},
	})

	ticket, err := fx.svc.CreateTicket(context.Background(), clientUser("u1"), TicketCreateInput{
		ProjectID:   "p1",
		TypeID:      "bug",
		Title:       "  search is broken  ",
		Description: "no results at all",
	})

	require.NoError(t, err)
	assert.Equal(t, "search is broken", ticket.Title)
	assert.Equal(t, domain.TicketStatusNew, ticket.Status)
	assert.Equal(t, domain.TicketPriorityNormal, ticket.Priority)
	require.Len(t, fx.history.Entries, 1)
	assert.Equal(t, "Ticket created", fx.history.Entries[0].Details)
	require.Len(t, fx.dispatcher.byType(events.EventTicketCreated), 1)
}

func TestCreateTicketDeniedForInvisibleProject(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", []string{"bug"}, []string{"r-other"}), &fakeTicketRepo{})

	_, err := fx.svc.CreateTicket(context.Background(), clientUser("u1"), TicketCreateInput{
		ProjectID: "p1",
		TypeID:    "bug",
		Title:     "hidden project",
	})

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestChangeStatusRejectsResolvedTarget(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, nil), &fakeTicketRepo{})

	_, err := fx.svc.ChangeStatus(context.Background(), managerUser("m1"), "t1", domain.TicketStatusResolved)

	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
	assert.Contains(t, domainErr.Message, "resolve or reopen")
}

func TestChangeStatusForbiddenForClients(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{})

	_, err := fx.svc.ChangeStatus(context.Background(), clientUser("u1"), "t1", domain.TicketStatusInProgress)

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestChangeStatusSameStatusIsNoop(t *testing.T) {
	updated := false
	fx := newTicketFixture(visibleProject("p1", nil, nil), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusInProgress}, nil
		},
		UpdateFn: func(ctx context.Context, ticket *domain.Ticket) error {
			updated = true
			return nil
		},
	})

	ticket, err := fx.svc.ChangeStatus(context.Background(), managerUser("m1"), "t1", domain.TicketStatusInProgress)

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
	assert.False(t, updated)
	assert.Empty(t, fx.dispatcher.Published)
}

func TestResolvePublishesSingleResolvedEvent(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, nil), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusInProgress, CreatorID: "creator"}, nil
		},
	})

	ticket, err := fx.svc.Resolve(context.Background(), managerUser("m1"), "t1", "restarted the indexer")

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.Resolution)
	assert.Equal(t, "restarted the indexer", *ticket.Resolution)
	require.NotNil(t, ticket.ResolvedByID)
	assert.Equal(t, "m1", *ticket.ResolvedByID)
	assert.NotNil(t, ticket.ResolvedAt)
	// one action, one event: no extra status-changed alongside it
	require.Len(t, fx.dispatcher.Published, 1)
	assert.Len(t, fx.dispatcher.byType(events.EventTicketResolved), 1)
}

func TestResolveByCreatorWithoutStatusPermission(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusInProgress, CreatorID: "u1"}, nil
		},
	})

	ticket, err := fx.svc.Resolve(context.Background(), clientUser("u1"), "t1", "figured it out myself")

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, ticket.Status)
	require.NotNil(t, ticket.ResolvedByID)
	assert.Equal(t, "u1", *ticket.ResolvedByID)
}

func TestResolveByStrangerForbidden(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusInProgress, CreatorID: "someone-else"}, nil
		},
	})

	_, err := fx.svc.Resolve(context.Background(), clientUser("u1"), "t1", "closing this")

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestReopenOnlyFromResolved(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, nil), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusInProgress, CreatorID: "creator"}, nil
		},
	})

	_, err := fx.svc.Reopen(context.Background(), managerUser("m1"), "t1", "still broken")

	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestReopenByCreatorWithoutStatusPermission(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusResolved, CreatorID: "u1"}, nil
		},
	})

	ticket, err := fx.svc.Reopen(context.Background(), clientUser("u1"), "t1", "fix did not hold")

	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusReopened, ticket.Status)
	require.NotNil(t, ticket.ReopenReason)
	assert.Equal(t, "fix did not hold", *ticket.ReopenReason)
	require.Len(t, fx.dispatcher.Published, 1)
	assert.Len(t, fx.dispatcher.byType(events.EventTicketReopened), 1)
}

func TestReopenByStrangerForbidden(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusResolved, CreatorID: "someone-else"}, nil
		},
	})

	_, err := fx.svc.Reopen(context.Background(), clientUser("u1"), "t1", "reopen please")

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestRateSatisfactionRules(t *testing.T) {
	newFixture := func(status domain.TicketStatus, creatorID string) *ticketFixture {
		return newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{
			GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, ProjectID: "p1", Status: status, CreatorID: creatorID}, nil
			},
		})
	}

	t.Run("rating out of range", func(t *testing.T) {
		fx := newFixture(domain.TicketStatusResolved, "u1")
		_, err := fx.svc.RateSatisfaction(context.Background(), clientUser("u1"), "t1", 6, "")
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	})

	t.Run("non-creator forbidden", func(t *testing.T) {
		fx := newFixture(domain.TicketStatusResolved, "someone-else")
		_, err := fx.svc.RateSatisfaction(context.Background(), clientUser("u1"), "t1", 4, "")
		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
	})

	t.Run("unresolved conflict", func(t *testing.T) {
		fx := newFixture(domain.TicketStatusInProgress, "u1")
		_, err := fx.svc.RateSatisfaction(context.Background(), clientUser("u1"), "t1", 4, "")
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("creator rates resolved ticket", func(t *testing.T) {
		fx := newFixture(domain.TicketStatusResolved, "u1")
		ticket, err := fx.svc.RateSatisfaction(context.Background(), clientUser("u1"), "t1", 4, "quick fix, thanks")
		require.NoError(t, err)
		require.NotNil(t, ticket.Satisfaction)
		assert.Equal(t, 4, *ticket.Satisfaction)
		require.Len(t, fx.feedback.Ratings, 1)
		assert.Equal(t, "quick fix, thanks", fx.feedback.Ratings[0].Comment)
		assert.Len(t, fx.dispatcher.byType(events.EventSatisfactionRated), 1)
	})
}

func TestAddCommentTrimsAndPublishesPreview(t *testing.T) {
	fx := newTicketFixture(visibleProject("p1", nil, []string{"r-client"}), &fakeTicketRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, ProjectID: "p1", Status: domain.TicketStatusNew, CreatorID: "u1"}, nil
		},
	})

	comment, err := fx.svc.AddComment(context.Background(), clientUser("u1"), "t1", "  any update on this?  ")

	require.NoError(t, err)
	assert.Equal(t, "any update on this?", comment.Content)
	published := fx.dispatcher.byType(events.EventCommentAdded)
	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.CommentAddedPayload)
	require.True(t, ok)
	assert.Equal(t, "any update on this?", payload.BodyPreview)
}
