package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

type stubTicketRepo struct {
	ticket *domain.Ticket
}

func (s *stubTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error { return nil }
func (s *stubTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error { return nil }
func (s *stubTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.ticket, nil
}
func (s *stubTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}
func (s *stubTicketRepo) ListUnresolved(ctx context.Context) ([]domain.Ticket, error) {
	return nil, nil
}
func (s *stubTicketRepo) DeleteByProject(ctx context.Context, projectID string) error { return nil }

type stubCommentRepo struct{}

func (s *stubCommentRepo) Create(ctx context.Context, comment *domain.Comment) error { return nil }
func (s *stubCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	return nil, nil
}
func (s *stubCommentRepo) FirstResponse(ctx context.Context, ticketID, creatorID string) (*domain.Comment, error) {
	return nil, nil
}

type stubPolicyRepo struct {
	policy *domain.SlaPolicy
}

func (s *stubPolicyRepo) Create(ctx context.Context, policy *domain.SlaPolicy) error { return nil }
func (s *stubPolicyRepo) Update(ctx context.Context, policy *domain.SlaPolicy) error { return nil }
func (s *stubPolicyRepo) Delete(ctx context.Context, id string) error                { return nil }
func (s *stubPolicyRepo) GetByTypeAndPriority(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SlaPolicy, error) {
	return s.policy, nil
}
func (s *stubPolicyRepo) List(ctx context.Context) ([]domain.SlaPolicy, error) { return nil, nil }

type stubBreachRepo struct {
	breaches []domain.SlaBreach
}

func (s *stubBreachRepo) Create(ctx context.Context, breach *domain.SlaBreach) error {
	s.breaches = append(s.breaches, *breach)
	return nil
}

func (s *stubBreachRepo) Exists(ctx context.Context, ticketID string, kind domain.BreachKind) (bool, error) {
	for _, b := range s.breaches {
		if b.TicketID == ticketID && b.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubBreachRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.SlaBreach, error) {
	return s.breaches, nil
}

func (s *stubBreachRepo) Count(ctx context.Context) (int, error) { return len(s.breaches), nil }

type stubHistoryRepo struct{}

func (s *stubHistoryRepo) Create(ctx context.Context, entry *domain.ChangeHistory) error { return nil }
func (s *stubHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.ChangeHistory, error) {
	return nil, nil
}

func TestStatusChangeTriggersSlaEvaluation(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tickets := &stubTicketRepo{ticket: &domain.Ticket{
		ID:        "t1",
		TypeID:    "type1",
		Status:    domain.TicketStatusInProgress,
		CreatorID: "creator",
		CreatedAt: createdAt,
	}}
	breaches := &stubBreachRepo{}

	sla := service.NewSlaService(service.SlaDependencies{
		TicketRepo:  tickets,
		CommentRepo: &stubCommentRepo{},
		PolicyRepo:  &stubPolicyRepo{policy: &domain.SlaPolicy{TicketTypeID: "type1", ResolutionTime: 60}},
		BreachRepo:  breaches,
		HistoryRepo: &stubHistoryRepo{},
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return createdAt.Add(2 * time.Hour) },
	})

	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	StartEventWorkers(dispatcher, nil, nil, sla, tickets)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: "t1",
		ActorID:  "specialist",
		Payload: events.TicketStatusChangedPayload{
			OldStatus: domain.TicketStatusNew,
			NewStatus: domain.TicketStatusInProgress,
		},
	})

	require.NoError(t, err)
	require.Len(t, breaches.breaches, 1)
	assert.Equal(t, domain.BreachResolutionPending, breaches.breaches[0].Kind)
}
