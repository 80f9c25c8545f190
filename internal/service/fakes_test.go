package service

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Function-field fakes over the repository interfaces. Unset fields
// return zero values so each test only wires what it asserts on.

type fakeTicketRepo struct {
	CreateFn         func(ctx context.Context, ticket *domain.Ticket) error
	UpdateFn         func(ctx context.Context, ticket *domain.Ticket) error
	GetByIDFn        func(ctx context.Context, id string) (*domain.Ticket, error)
	ListFn           func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error)
	ListUnresolvedFn func(ctx context.Context) ([]domain.Ticket, error)
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, ticket)
	}
	return nil
}

func (f *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, ticket)
	}
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeTicketRepo) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeTicketRepo) ListUnresolved(ctx context.Context) ([]domain.Ticket, error) {
	if f.ListUnresolvedFn != nil {
		return f.ListUnresolvedFn(ctx)
	}
	return nil, nil
}

func (f *fakeTicketRepo) DeleteByProject(ctx context.Context, projectID string) error {
	return nil
}

type fakeCommentRepo struct {
	CreateFn        func(ctx context.Context, comment *domain.Comment) error
	ListByTicketFn  func(ctx context.Context, ticketID string) ([]domain.Comment, error)
	FirstResponseFn func(ctx context.Context, ticketID, creatorID string) (*domain.Comment, error)
}

func (f *fakeCommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, comment)
	}
	return nil
}

func (f *fakeCommentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if f.ListByTicketFn != nil {
		return f.ListByTicketFn(ctx, ticketID)
	}
	return nil, nil
}

func (f *fakeCommentRepo) FirstResponse(ctx context.Context, ticketID, creatorID string) (*domain.Comment, error) {
	if f.FirstResponseFn != nil {
		return f.FirstResponseFn(ctx, ticketID, creatorID)
	}
	return nil, nil
}

type fakeProjectRepo struct {
	GetByIDFn         func(ctx context.Context, id string) (*domain.Project, error)
	GetByKeyFn        func(ctx context.Context, key string) (*domain.Project, error)
	ListFn            func(ctx context.Context) ([]domain.Project, error)
	ExistsManagedByFn func(ctx context.Context, userID string) (bool, error)
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *domain.Project) error { return nil }
func (f *fakeProjectRepo) Update(ctx context.Context, project *domain.Project) error { return nil }
func (f *fakeProjectRepo) Delete(ctx context.Context, id string) error               { return nil }

func (f *fakeProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeProjectRepo) GetByKey(ctx context.Context, key string) (*domain.Project, error) {
	if f.GetByKeyFn != nil {
		return f.GetByKeyFn(ctx, key)
	}
	return nil, nil
}

func (f *fakeProjectRepo) List(ctx context.Context) ([]domain.Project, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx)
	}
	return nil, nil
}

func (f *fakeProjectRepo) ListVisibleToRole(ctx context.Context, roleID string) ([]domain.Project, error) {
	return nil, nil
}

func (f *fakeProjectRepo) ExistsManagedBy(ctx context.Context, userID string) (bool, error) {
	if f.ExistsManagedByFn != nil {
		return f.ExistsManagedByFn(ctx, userID)
	}
	return false, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	Entries []domain.ChangeHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, entry *domain.ChangeHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries = append(f.Entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.ChangeHistory, error) {
	return f.Entries, nil
}

type fakeFeedbackRepo struct {
	mu      sync.Mutex
	Ratings []domain.Feedback
}

func (f *fakeFeedbackRepo) Create(ctx context.Context, feedback *domain.Feedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ratings = append(f.Ratings, *feedback)
	return nil
}

func (f *fakeFeedbackRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Feedback, error) {
	return f.Ratings, nil
}

func (f *fakeFeedbackRepo) List(ctx context.Context) ([]domain.Feedback, error) {
	return f.Ratings, nil
}

type fakeAttachmentRepo struct {
	mu      sync.Mutex
	Entries []domain.Attachment
}

func (f *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Entries = append(f.Entries, *attachment)
	return nil
}

func (f *fakeAttachmentRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	return f.Entries, nil
}

type fakeSlaPolicyRepo struct {
	GetByTypeAndPriorityFn func(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SlaPolicy, error)
	CreateFn               func(ctx context.Context, policy *domain.SlaPolicy) error
	ListFn                 func(ctx context.Context) ([]domain.SlaPolicy, error)
}

func (f *fakeSlaPolicyRepo) Create(ctx context.Context, policy *domain.SlaPolicy) error {
	if f.CreateFn != nil {
		return f.CreateFn(ctx, policy)
	}
	return nil
}

func (f *fakeSlaPolicyRepo) Update(ctx context.Context, policy *domain.SlaPolicy) error { return nil }
func (f *fakeSlaPolicyRepo) Delete(ctx context.Context, id string) error                { return nil }

func (f *fakeSlaPolicyRepo) GetByTypeAndPriority(ctx context.Context, typeID string, priority domain.TicketPriority) (*domain.SlaPolicy, error) {
	if f.GetByTypeAndPriorityFn != nil {
		return f.GetByTypeAndPriorityFn(ctx, typeID, priority)
	}
	return nil, nil
}

func (f *fakeSlaPolicyRepo) List(ctx context.Context) ([]domain.SlaPolicy, error) {
	if f.ListFn != nil {
		return f.ListFn(ctx)
	}
	return nil, nil
}

// fakeSlaBreachRepo keeps recorded breaches in memory so Exists reflects
// earlier Create calls within the same test.
type fakeSlaBreachRepo struct {
	mu       sync.Mutex
	Breaches []domain.SlaBreach
}

func (f *fakeSlaBreachRepo) Create(ctx context.Context, breach *domain.SlaBreach) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Breaches = append(f.Breaches, *breach)
	return nil
}

func (f *fakeSlaBreachRepo) Exists(ctx context.Context, ticketID string, kind domain.BreachKind) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.Breaches {
		if b.TicketID == ticketID && b.Kind == kind {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSlaBreachRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.SlaBreach, error) {
	return f.Breaches, nil
}

func (f *fakeSlaBreachRepo) Count(ctx context.Context) (int, error) {
	return len(f.Breaches), nil
}

type fakeSubscriptionRepo struct {
	TicketSubs  map[string][]string
	ProjectSubs map[string][]string
}

func (f *fakeSubscriptionRepo) Create(ctx context.Context, sub *domain.Subscription) error {
	return nil
}

func (f *fakeSubscriptionRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeSubscriptionRepo) FindByUserAndTicket(ctx context.Context, userID, ticketID string) (*domain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptionRepo) FindByUserAndProject(ctx context.Context, userID, projectID string) (*domain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptionRepo) ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error) {
	return nil, nil
}

func (f *fakeSubscriptionRepo) SubscriberIDsForTicket(ctx context.Context, ticketID string) ([]string, error) {
	return f.TicketSubs[ticketID], nil
}

func (f *fakeSubscriptionRepo) SubscriberIDsForProject(ctx context.Context, projectID string) ([]string, error) {
	return f.ProjectSubs[projectID], nil
}

func (f *fakeSubscriptionRepo) DeleteByProject(ctx context.Context, projectID string) error {
	return nil
}

type fakeNotificationRepo struct {
	mu      sync.Mutex
	Created []domain.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Created = append(f.Created, *notification)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(ctx context.Context, recipientID string, unreadOnly bool) ([]domain.Notification, error) {
	return f.Created, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, recipientID string) error {
	return nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	count := 0
	for _, n := range f.Created {
		if !n.Read {
			count++
		}
	}
	return count, nil
}

type fakeUserRepo struct {
	GetByIDFn         func(ctx context.Context, id string) (*domain.User, error)
	GetByLoginFn      func(ctx context.Context, login string) (*domain.User, error)
	UpdateFn          func(ctx context.Context, user *domain.User) error
	ListByRoleNamesFn func(ctx context.Context, names []domain.RoleName) ([]domain.User, error)
}

func (f *fakeUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if f.UpdateFn != nil {
		return f.UpdateFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.GetByIDFn != nil {
		return f.GetByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	if f.GetByLoginFn != nil {
		return f.GetByLoginFn(ctx, login)
	}
	return nil, nil
}

func (f *fakeUserRepo) List(ctx context.Context) ([]domain.User, error) { return nil, nil }

func (f *fakeUserRepo) ListByRoleNames(ctx context.Context, names []domain.RoleName) ([]domain.User, error) {
	if f.ListByRoleNamesFn != nil {
		return f.ListByRoleNamesFn(ctx, names)
	}
	return nil, nil
}

// fakeDispatcher records published events instead of running handlers.
type fakeDispatcher struct {
	mu        sync.Mutex
	Published []events.Event
}

func (f *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Published = append(f.Published, event)
	return nil
}

func (f *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (f *fakeDispatcher) byType(eventType events.EventType) []events.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []events.Event
	for _, e := range f.Published {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
