package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
)

func newSlaFixture(policy *domain.SlaPolicy, now time.Time) (*SlaService, *fakeSlaBreachRepo, *fakeHistoryRepo, *fakeDispatcher, *fakeCommentRepo) {
	breaches := &fakeSlaBreachRepo{}
	history := &fakeHistoryRepo{}
	dispatcher := &fakeDispatcher{}
	comments := &fakeCommentRepo{}

	svc := NewSlaService(SlaDependencies{
		TicketRepo:  &fakeTicketRepo{},
		CommentRepo: comments,
		PolicyRepo: &fakeSlaPolicyRepo{
			GetByTypeAndPriorityFn: func(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SlaPolicy, error) {
				return policy, nil
			},
		},
		BreachRepo:  breaches,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return now },
	})
	return svc, breaches, history, dispatcher, comments
}

func TestEvaluateTicketNoPolicyIsNoop(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc, breaches, _, _, _ := newSlaFixture(nil, createdAt.Add(10*time.Hour))

	ticket := &domain.Ticket{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt}
	recorded, err := svc.EvaluateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Empty(t, breaches.Breaches)
}

func TestEvaluateTicketPendingResolutionBreachOnce(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy := &domain.SlaPolicy{TicketTypeID: "type1", Priority: domain.TicketPriorityNormal, ResolutionTime: 60}
	svc, breaches, history, dispatcher, _ := newSlaFixture(policy, createdAt.Add(90*time.Minute))

	ticket := &domain.Ticket{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt}

	recorded, err := svc.EvaluateTicket(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, 1, recorded)

	require.Len(t, breaches.Breaches, 1)
	breach := breaches.Breaches[0]
	assert.Equal(t, domain.BreachResolutionPending, breach.Kind)
	assert.Equal(t, 90, breach.ElapsedMin)
	assert.Equal(t, 60, breach.BudgetMin)

	require.Len(t, history.Entries, 1)
	require.NotNil(t, history.Entries[0].ChangedByID)
	assert.Equal(t, "creator", *history.Entries[0].ChangedByID)

	assert.Len(t, dispatcher.byType(events.EventSlaBreachDetected), 1)

	// rescan later: the breach is already on record
	recorded, err = svc.EvaluateTicket(context.Background(), ticket)
	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Len(t, breaches.Breaches, 1)
	assert.Len(t, history.Entries, 1)
}

func TestEvaluateTicketBreachesOnFractionalMinutes(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy := &domain.SlaPolicy{TicketTypeID: "type1", ResolutionTime: 60}
	// 60 minutes and 30 seconds elapsed against a 60-minute budget
	svc, breaches, _, _, _ := newSlaFixture(policy, createdAt.Add(60*time.Minute+30*time.Second))

	ticket := &domain.Ticket{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt}
	recorded, err := svc.EvaluateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Equal(t, 1, recorded)
	require.Len(t, breaches.Breaches, 1)
	assert.Equal(t, domain.BreachResolutionPending, breaches.Breaches[0].Kind)
	assert.Equal(t, 60, breaches.Breaches[0].ElapsedMin)
}

func TestEvaluateTicketWithinBudgetNoBreach(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy := &domain.SlaPolicy{TicketTypeID: "type1", ResolutionTime: 60}
	svc, breaches, _, _, _ := newSlaFixture(policy, createdAt.Add(30*time.Minute))

	ticket := &domain.Ticket{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt}
	recorded, err := svc.EvaluateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Empty(t, breaches.Breaches)
}

func TestEvaluateTicketLateResponseAttributedToResponder(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	respondedAt := createdAt.Add(45 * time.Minute)
	policy := &domain.SlaPolicy{TicketTypeID: "type1", ResponseTime: 30}
	svc, breaches, history, _, comments := newSlaFixture(policy, createdAt.Add(2*time.Hour))

	comments.FirstResponseFn = func(ctx context.Context, ticketID, creatorID string) (*domain.Comment, error) {
		return &domain.Comment{ID: "c1", TicketID: ticketID, AuthorID: "responder", CreatedAt: respondedAt}, nil
	}

	ticket := &domain.Ticket{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt}
	recorded, err := svc.EvaluateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Equal(t, 1, recorded)
	require.Len(t, breaches.Breaches, 1)
	assert.Equal(t, domain.BreachResponse, breaches.Breaches[0].Kind)
	assert.Equal(t, respondedAt, breaches.Breaches[0].RecordedAt)
	require.Len(t, history.Entries, 1)
	require.NotNil(t, history.Entries[0].ChangedByID)
	assert.Equal(t, "responder", *history.Entries[0].ChangedByID)
}

func TestEvaluateTicketNoResponseYetNoResponseBreach(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy := &domain.SlaPolicy{TicketTypeID: "type1", ResponseTime: 30}
	svc, breaches, _, _, _ := newSlaFixture(policy, createdAt.Add(2*time.Hour))

	ticket := &domain.Ticket{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt}
	recorded, err := svc.EvaluateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Empty(t, breaches.Breaches)
}

func TestEvaluateTicketLateResolutionAttributedToResolver(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	resolvedAt := createdAt.Add(3 * time.Hour)
	resolver := "resolver"
	policy := &domain.SlaPolicy{TicketTypeID: "type1", ResolutionTime: 60}
	svc, breaches, history, _, _ := newSlaFixture(policy, resolvedAt.Add(time.Hour))

	ticket := &domain.Ticket{
		ID:           "t1",
		TypeID:       "type1",
		Status:       domain.TicketStatusResolved,
		CreatorID:    "creator",
		CreatedAt:    createdAt,
		ResolvedAt:   &resolvedAt,
		ResolvedByID: &resolver,
	}
	recorded, err := svc.EvaluateTicket(context.Background(), ticket)

	require.NoError(t, err)
	assert.Equal(t, 1, recorded)
	require.Len(t, breaches.Breaches, 1)
	assert.Equal(t, domain.BreachResolution, breaches.Breaches[0].Kind)
	assert.Equal(t, 180, breaches.Breaches[0].ElapsedMin)
	assert.Equal(t, resolvedAt, breaches.Breaches[0].RecordedAt)
	require.Len(t, history.Entries, 1)
	require.NotNil(t, history.Entries[0].ChangedByID)
	assert.Equal(t, resolver, *history.Entries[0].ChangedByID)
}

func TestEvaluateAllScansUnresolvedTickets(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	policy := &domain.SlaPolicy{TicketTypeID: "type1", ResolutionTime: 60}
	svc, breaches, _, _, _ := newSlaFixture(policy, createdAt.Add(2*time.Hour))

	svc.tickets = &fakeTicketRepo{
		ListUnresolvedFn: func(ctx context.Context) ([]domain.Ticket, error) {
			return []domain.Ticket{
				{ID: "t1", TypeID: "type1", Status: domain.TicketStatusNew, CreatorID: "creator", CreatedAt: createdAt},
				{ID: "t2", TypeID: "type1", Status: domain.TicketStatusInProgress, CreatorID: "creator", CreatedAt: createdAt},
			}, nil
		},
	}

	recorded, err := svc.EvaluateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, recorded)
	assert.Len(t, breaches.Breaches, 2)
}

func TestCreatePolicyRejectsDuplicates(t *testing.T) {
	existing := &domain.SlaPolicy{ID: "p1", TicketTypeID: "type1", Priority: domain.TicketPriorityNormal}
	svc, _, _, _, _ := newSlaFixture(existing, time.Now())

	err := svc.CreatePolicy(context.Background(), &domain.SlaPolicy{TicketTypeID: "type1", ResponseTime: 10, ResolutionTime: 20})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestCreatePolicyDefaultsPriority(t *testing.T) {
	var created *domain.SlaPolicy
	svc := NewSlaService(SlaDependencies{
		PolicyRepo: &fakeSlaPolicyRepo{
			CreateFn: func(ctx context.Context, policy *domain.SlaPolicy) error {
				created = policy
				return nil
			},
		},
		Logger: zap.NewNop(),
	})

	err := svc.CreatePolicy(context.Background(), &domain.SlaPolicy{TicketTypeID: "type1", ResponseTime: 10, ResolutionTime: 20})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, domain.TicketPriorityNormal, created.Priority)
}
