package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

type suggestionFixture struct {
	svc           *SuggestionService
	notifications *fakeNotificationRepo
	dispatcher    *fakeDispatcher
	stored        *domain.Suggestion
}

func newSuggestionFixture(stored *domain.Suggestion, users *fakeUserRepo) *suggestionFixture {
	notifications := &fakeNotificationRepo{}
	dispatcher := &fakeDispatcher{}
	notifier := NewNotificationService(NotificationDependencies{
		NotificationRepo: notifications,
		SubscriptionRepo: &fakeSubscriptionRepo{},
		TicketRepo:       &fakeTicketRepo{},
		ProjectRepo:      &fakeProjectRepo{},
		UserRepo:         users,
		Logger:           zap.NewNop(),
	})

	repo := &fakeSuggestionRepo{Stored: stored}
	svc := NewSuggestionService(repo, users, access.NewService(&fakeProjectRepo{}), notifier, dispatcher)
	return &suggestionFixture{svc: svc, notifications: notifications, dispatcher: dispatcher, stored: stored}
}

type fakeSuggestionRepo struct {
	Stored *domain.Suggestion
	All    []domain.Suggestion
}

func (f *fakeSuggestionRepo) Create(ctx context.Context, suggestion *domain.Suggestion) error {
	suggestion.ID = "sug1"
	f.Stored = suggestion
	return nil
}

func (f *fakeSuggestionRepo) Update(ctx context.Context, suggestion *domain.Suggestion) error {
	f.Stored = suggestion
	return nil
}

func (f *fakeSuggestionRepo) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	return f.Stored, nil
}

func (f *fakeSuggestionRepo) List(ctx context.Context) ([]domain.Suggestion, error) {
	return f.All, nil
}

func developerUser(id string) *domain.User {
	return &domain.User{ID: id, RoleID: "r-dev", Role: &domain.Role{ID: "r-dev", Name: domain.RoleDeveloper}}
}

func TestCreateSuggestionNotifiesDevelopers(t *testing.T) {
	users := &fakeUserRepo{
		ListByRoleNamesFn: func(ctx context.Context, names []domain.RoleName) ([]domain.User, error) {
			assert.Equal(t, []domain.RoleName{domain.RoleDeveloper}, names)
			return []domain.User{{ID: "dev1"}, {ID: "dev2"}}, nil
		},
	}
	fx := newSuggestionFixture(nil, users)

	suggestion, err := fx.svc.Create(context.Background(), clientUser("u1"), "add a dark theme")

	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionStatusNew, suggestion.Status)
	require.Len(t, fx.notifications.Created, 2)
	for _, n := range fx.notifications.Created {
		assert.Equal(t, domain.NotifySuggestionNew, n.Type)
	}
	assert.Len(t, fx.dispatcher.byType(events.EventSuggestionCreated), 1)
}

func TestAssignRequiresDeveloperRole(t *testing.T) {
	users := &fakeUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return clientUser(id), nil
		},
	}
	fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusNew, AuthorID: "u1"}, users)

	_, err := fx.svc.Assign(context.Background(), managerUser("m1"), "sug1", "not-a-dev")

	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestAssignMovesToAssignedAndNotifies(t *testing.T) {
	users := &fakeUserRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
			return developerUser(id), nil
		},
	}
	fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusNew, AuthorID: "u1"}, users)

	suggestion, err := fx.svc.Assign(context.Background(), managerUser("m1"), "sug1", "dev1")

	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionStatusAssigned, suggestion.Status)
	require.NotNil(t, suggestion.DeveloperID)
	assert.Equal(t, "dev1", *suggestion.DeveloperID)
	require.Len(t, fx.notifications.Created, 1)
	assert.Equal(t, "dev1", fx.notifications.Created[0].RecipientID)
	assert.Equal(t, domain.NotifySuggestionAssigned, fx.notifications.Created[0].Type)
}

func TestAssignForbiddenWithoutManagement(t *testing.T) {
	fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusNew}, &fakeUserRepo{})

	_, err := fx.svc.Assign(context.Background(), clientUser("u1"), "sug1", "dev1")

	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestMarkReadyOnlyByAssignee(t *testing.T) {
	dev := "dev1"
	fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusAssigned, AuthorID: "u1", DeveloperID: &dev}, &fakeUserRepo{})

	_, err := fx.svc.MarkReady(context.Background(), developerUser("dev2"), "sug1")
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	suggestion, err := fx.svc.MarkReady(context.Background(), developerUser("dev1"), "sug1")
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionStatusReadyToDeploy, suggestion.Status)
}

func TestSignOffOutcomes(t *testing.T) {
	dev := "dev1"

	t.Run("not awaiting deployment", func(t *testing.T) {
		fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusAssigned, AuthorID: "u1", DeveloperID: &dev}, &fakeUserRepo{})
		_, err := fx.svc.SignOff(context.Background(), managerUser("m1"), "sug1", true)
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
	})

	t.Run("deployed notifies author", func(t *testing.T) {
		fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusReadyToDeploy, AuthorID: "u1", DeveloperID: &dev}, &fakeUserRepo{})
		suggestion, err := fx.svc.SignOff(context.Background(), managerUser("m1"), "sug1", true)
		require.NoError(t, err)
		assert.Equal(t, domain.SuggestionStatusDeployed, suggestion.Status)
		require.Len(t, fx.notifications.Created, 1)
		assert.Equal(t, "u1", fx.notifications.Created[0].RecipientID)
		assert.Equal(t, domain.NotifySuggestionDeployed, fx.notifications.Created[0].Type)
	})

	t.Run("failed verification returns to developer", func(t *testing.T) {
		fx := newSuggestionFixture(&domain.Suggestion{ID: "sug1", Status: domain.SuggestionStatusReadyToDeploy, AuthorID: "u1", DeveloperID: &dev}, &fakeUserRepo{})
		suggestion, err := fx.svc.SignOff(context.Background(), managerUser("m1"), "sug1", false)
		require.NoError(t, err)
		assert.Equal(t, domain.SuggestionStatusNeedsRevision, suggestion.Status)
		require.Len(t, fx.notifications.Created, 1)
		assert.Equal(t, "dev1", fx.notifications.Created[0].RecipientID)
		assert.Equal(t, domain.NotifySuggestionTestFailed, fx.notifications.Created[0].Type)
	})
}

func TestListScopesToOwnSuggestionsForClients(t *testing.T) {
	repo := &fakeSuggestionRepo{All: []domain.Suggestion{
		{ID: "s1", AuthorID: "u1"},
		{ID: "s2", AuthorID: "u2"},
	}}
	svc := NewSuggestionService(repo, &fakeUserRepo{}, access.NewService(&fakeProjectRepo{}), nil, nil)

	own, err := svc.List(context.Background(), clientUser("u1"))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "s1", own[0].ID)

	all, err := svc.List(context.Background(), developerUser("dev1"))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	all, err = svc.List(context.Background(), managerUser("m1"))
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
