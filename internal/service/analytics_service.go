package service

import (
	"context"
	"time"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AnalyticsService aggregates ticket and SLA statistics for reporting.
type AnalyticsService struct {
	tickets  repository.TicketRepository
	feedback repository.FeedbackRepository
	breaches repository.SlaBreachRepository
	access   *access.Service
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(tickets repository.TicketRepository, feedback repository.FeedbackRepository, breaches repository.SlaBreachRepository, accessSvc *access.Service) *AnalyticsService {
	return &AnalyticsService{
		tickets:  tickets,
		feedback: feedback,
		breaches: breaches,
		access:   accessSvc,
	}
}

// Summary is the aggregate report over all tickets.
type Summary struct {
	TotalTickets         int                           `json:"total_tickets"`
	ResolvedTickets      int                           `json:"resolved_tickets"`
	ByStatus             map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority           map[domain.TicketPriority]int `json:"by_priority"`
	AvgResolutionMinutes float64                       `json:"avg_resolution_minutes"`
	SlaBreaches          int                           `json:"sla_breaches"`
	AvgSatisfaction      float64                       `json:"avg_satisfaction"`
	RatedTickets         int                           `json:"rated_tickets"`
	RatingCounts         map[int]int                   `json:"rating_counts"`
	CreatedPerDay        map[string]int                `json:"created_per_day"`
}

// BuildSummary computes the aggregate report. Requires the analytics or
// reporting permission.
func (s *AnalyticsService) BuildSummary(ctx context.Context, actor *domain.User) (*Summary, error) {
	if err := s.requireAnalytics(ctx, actor); err != nil {
		return nil, err
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	summary := &Summary{
		TotalTickets:  len(tickets),
		ByStatus:      make(map[domain.TicketStatus]int),
		ByPriority:    make(map[domain.TicketPriority]int),
		RatingCounts:  make(map[int]int),
		CreatedPerDay: make(map[string]int),
	}

	windowStart := time.Now().AddDate(0, 0, -30)
	var resolutionTotal time.Duration
	for _, ticket := range tickets {
		summary.ByStatus[ticket.Status]++
		summary.ByPriority[ticket.EffectivePriority()]++
		if ticket.CreatedAt.After(windowStart) {
			summary.CreatedPerDay[ticket.CreatedAt.Format("2006-01-02")]++
		}
		if ticket.ResolvedAt != nil {
			summary.ResolvedTickets++
			resolutionTotal += ticket.ResolvedAt.Sub(ticket.CreatedAt)
		}
	}
	if summary.ResolvedTickets > 0 {
		summary.AvgResolutionMinutes = resolutionTotal.Minutes() / float64(summary.ResolvedTickets)
	}

	breaches, err := s.breaches.Count(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	summary.SlaBreaches = breaches

	ratings, err := s.feedback.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(ratings) > 0 {
		total := 0
		for _, feedback := range ratings {
			total += feedback.Rating
			summary.RatingCounts[feedback.Rating]++
		}
		summary.RatedTickets = len(ratings)
		summary.AvgSatisfaction = float64(total) / float64(len(ratings))
	}

	return summary, nil
}

func (s *AnalyticsService) requireAnalytics(ctx context.Context, actor *domain.User) error {
	for _, permission := range []string{domain.PermViewAnalytics, domain.PermGenerateReports} {
		allowed, err := s.access.HasPermission(ctx, actor, permission)
		if err != nil {
			return apperrors.MapError(err)
		}
		if allowed {
			return nil
		}
	}
	return apperrors.NewForbidden("analytics access not permitted")
}
