package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// SlaService evaluates tickets against their SLA budgets and records
// breaches. Recording is idempotent: each (ticket, kind) pair is checked
// against the breach table before anything is written, so rescanning a
// ticket never produces duplicates.
type SlaService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	policies   repository.SlaPolicyRepository
	breaches   repository.SlaBreachRepository
	history    repository.HistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// SlaDependencies bundles collaborators for the service.
type SlaDependencies struct {
	TicketRepo   repository.TicketRepository
	CommentRepo  repository.CommentRepository
	PolicyRepo   repository.SlaPolicyRepository
	BreachRepo   repository.SlaBreachRepository
	HistoryRepo  repository.HistoryRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Now          func() time.Time
}

// NewSlaService constructs the service.
func NewSlaService(deps SlaDependencies) *SlaService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &SlaService{
		tickets:    deps.TicketRepo,
		comments:   deps.CommentRepo,
		policies:   deps.PolicyRepo,
		breaches:   deps.BreachRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
	}
}

// CreatePolicy registers an SLA budget for a ticket type and priority.
func (s *SlaService) CreatePolicy(ctx context.Context, policy *domain.SlaPolicy) error {
	if policy.ResponseTime < 0 || policy.ResolutionTime < 0 {
		return apperrors.NewValidationError("sla budgets must not be negative", nil)
	}
	if policy.Priority == "" {
		policy.Priority = domain.TicketPriorityNormal
	}
	existing, err := s.policies.GetByTypeAndPriority(ctx, policy.TicketTypeID, policy.Priority)
	if err != nil {
		return apperrors.MapError(err)
	}
	if existing != nil {
		return apperrors.NewConflict("policy already exists", map[string]any{
			"ticket_type_id": policy.TicketTypeID,
			"priority":       policy.Priority,
		})
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListPolicies returns all configured policies.
func (s *SlaService) ListPolicies(ctx context.Context) ([]domain.SlaPolicy, error) {
	policies, err := s.policies.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return policies, nil
}

// EvaluateAll runs the evaluator over every unresolved ticket and returns
// the number of breaches recorded.
func (s *SlaService) EvaluateAll(ctx context.Context) (int, error) {
	tickets, err := s.tickets.ListUnresolved(ctx)
	if err != nil {
		return 0, err
	}
	recorded := 0
	for i := range tickets {
		n, err := s.EvaluateTicket(ctx, &tickets[i])
		if err != nil {
			s.logger.Warn("sla evaluation failed",
				zap.String("ticket_id", tickets[i].ID),
				zap.Error(err),
			)
			continue
		}
		recorded += n
	}
	return recorded, nil
}

// EvaluateTicket checks a single ticket against its policy and records
// any newly detected breaches. A ticket whose type and priority have no
// policy is left alone.
func (s *SlaService) EvaluateTicket(ctx context.Context, ticket *domain.Ticket) (int, error) {
	policy, err := s.policies.GetByTypeAndPriority(ctx, ticket.TypeID, ticket.EffectivePriority())
	if err != nil {
		return 0, err
	}
	if policy == nil {
		return 0, nil
	}

	recorded := 0

	n, err := s.checkResponse(ctx, ticket, policy)
	if err != nil {
		return recorded, err
	}
	recorded += n

	n, err = s.checkResolution(ctx, ticket, policy)
	if err != nil {
		return recorded, err
	}
	recorded += n

	return recorded, nil
}

// checkResponse records a response breach when the first reply from
// someone other than the creator landed past the response budget. The
// breach is dated at the reply, not at detection time.
func (s *SlaService) checkResponse(ctx context.Context, ticket *domain.Ticket, policy *domain.SlaPolicy) (int, error) {
	if policy.ResponseTime <= 0 {
		return 0, nil
	}
	first, err := s.comments.FirstResponse(ctx, ticket.ID, ticket.CreatorID)
	if err != nil {
		return 0, err
	}
	if first == nil {
		return 0, nil
	}
	if !overBudget(ticket.CreatedAt, first.CreatedAt, policy.ResponseTime) {
		return 0, nil
	}
	return s.recordBreach(ctx, ticket, domain.SlaBreach{
		TicketID:   ticket.ID,
		Kind:       domain.BreachResponse,
		ElapsedMin: minutesBetween(ticket.CreatedAt, first.CreatedAt),
		BudgetMin:  policy.ResponseTime,
		RecordedAt: first.CreatedAt,
	}, &first.AuthorID)
}

// checkResolution handles both sides of the resolution budget: tickets
// already resolved too late, and tickets still open past the budget.
func (s *SlaService) checkResolution(ctx context.Context, ticket *domain.Ticket, policy *domain.SlaPolicy) (int, error) {
	if policy.ResolutionTime <= 0 {
		return 0, nil
	}

	if ticket.Status == domain.TicketStatusResolved {
		if ticket.ResolvedAt == nil {
			return 0, nil
		}
		if !overBudget(ticket.CreatedAt, *ticket.ResolvedAt, policy.ResolutionTime) {
			return 0, nil
		}
		return s.recordBreach(ctx, ticket, domain.SlaBreach{
			TicketID:   ticket.ID,
			Kind:       domain.BreachResolution,
			ElapsedMin: minutesBetween(ticket.CreatedAt, *ticket.ResolvedAt),
			BudgetMin:  policy.ResolutionTime,
			RecordedAt: *ticket.ResolvedAt,
		}, ticket.ResolvedByID)
	}

	now := s.now()
	if !overBudget(ticket.CreatedAt, now, policy.ResolutionTime) {
		return 0, nil
	}
	return s.recordBreach(ctx, ticket, domain.SlaBreach{
		TicketID:   ticket.ID,
		Kind:       domain.BreachResolutionPending,
		ElapsedMin: minutesBetween(ticket.CreatedAt, now),
		BudgetMin:  policy.ResolutionTime,
		RecordedAt: now,
	}, &ticket.CreatorID)
}

func (s *SlaService) recordBreach(ctx context.Context, ticket *domain.Ticket, breach domain.SlaBreach, attributedTo *string) (int, error) {
	exists, err := s.breaches.Exists(ctx, breach.TicketID, breach.Kind)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}
	if err := s.breaches.Create(ctx, &breach); err != nil {
		return 0, err
	}

	entry := &domain.ChangeHistory{
		TicketID:   ticket.ID,
		ChangeDate: breach.RecordedAt,
		Details: fmt.Sprintf("SLA %s breach: %dm elapsed of %dm budget",
			breach.Kind, breach.ElapsedMin, breach.BudgetMin),
		ChangedByID: attributedTo,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		return 0, err
	}

	s.logger.Info("sla breach recorded",
		zap.String("ticket_id", ticket.ID),
		zap.String("kind", string(breach.Kind)),
		zap.Int("elapsed_min", breach.ElapsedMin),
		zap.Int("budget_min", breach.BudgetMin),
	)

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:      events.EventSlaBreachDetected,
			TicketID:  ticket.ID,
			Timestamp: breach.RecordedAt,
			Payload: events.SlaBreachDetectedPayload{
				Kind:       breach.Kind,
				ElapsedMin: breach.ElapsedMin,
				BudgetMin:  breach.BudgetMin,
			},
		})
	}
	return 1, nil
}

// overBudget compares fractional minutes so a budget of 60 is breached
// the moment 60 whole minutes have passed, not at 61.
func overBudget(from, to time.Time, budgetMin int) bool {
	return to.Sub(from).Minutes() > float64(budgetMin)
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}
