package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ProjectService manages projects, their ticket type allow-lists, and
// ticket type reference data.
type ProjectService struct {
	projects      repository.ProjectRepository
	ticketTypes   repository.TicketTypeRepository
	tickets       repository.TicketRepository
	subscriptions repository.SubscriptionRepository
	users         repository.UserRepository
	access        *access.Service
}

// ProjectDependencies bundles repositories for project service.
type ProjectDependencies struct {
	ProjectRepo      repository.ProjectRepository
	TicketTypeRepo   repository.TicketTypeRepository
	TicketRepo       repository.TicketRepository
	SubscriptionRepo repository.SubscriptionRepository
	UserRepo         repository.UserRepository
	Access           *access.Service
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	return &ProjectService{
		projects:      deps.ProjectRepo,
		ticketTypes:   deps.TicketTypeRepo,
		tickets:       deps.TicketRepo,
		subscriptions: deps.SubscriptionRepo,
		users:         deps.UserRepo,
		access:        deps.Access,
	}
}

// ProjectInput describes project create/update payload.
type ProjectInput struct {
	Name             string
	Key              string
	ManagerID        *string
	TicketTypeIDs    []string
	VisibleToRoleIDs []string
}

// CreateProject registers a new project.
func (s *ProjectService) CreateProject(ctx context.Context, actor *domain.User, input ProjectInput) (*domain.Project, error) {
	if err := s.requireProjectManagement(ctx, actor); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	key := strings.ToUpper(strings.TrimSpace(input.Key))
	if name == "" || key == "" {
		return nil, apperrors.NewValidationError("project name and key are required", nil)
	}

	if existing, err := s.projects.GetByKey(ctx, key); err == nil && existing != nil {
		return nil, apperrors.NewConflict("project key already taken", map[string]any{"key": key})
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	if input.ManagerID != nil {
		if _, err := s.users.GetByID(ctx, *input.ManagerID); err != nil {
			if err == pgx.ErrNoRows {
				return nil, apperrors.NewValidationError("manager does not exist", map[string]any{"manager_id": *input.ManagerID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	project := &domain.Project{
		Name:             name,
		Key:              key,
		ManagerID:        input.ManagerID,
		TicketTypeIDs:    input.TicketTypeIDs,
		VisibleToRoleIDs: input.VisibleToRoleIDs,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// UpdateProject applies changes to an existing project. The project's
// own manager may edit name, key, and ticket types; changing the
// manager or the visibility roles takes the project management
// permission.
func (s *ProjectService) UpdateProject(ctx context.Context, actor *domain.User, projectID string, input ProjectInput) (*domain.Project, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	managesProjects, err := s.access.HasPermission(ctx, actor, domain.PermManageProjects)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !managesProjects && !s.access.IsProjectManager(actor, project) {
		return nil, apperrors.NewForbidden("project management not permitted")
	}

	if name := strings.TrimSpace(input.Name); name != "" {
		project.Name = name
	}
	if key := strings.ToUpper(strings.TrimSpace(input.Key)); key != "" && key != project.Key {
		if existing, err := s.projects.GetByKey(ctx, key); err == nil && existing != nil {
			return nil, apperrors.NewConflict("project key already taken", map[string]any{"key": key})
		} else if err != nil && err != pgx.ErrNoRows {
			return nil, apperrors.MapError(err)
		}
		project.Key = key
	}
	if input.ManagerID != nil || input.VisibleToRoleIDs != nil {
		if !managesProjects {
			return nil, apperrors.NewForbidden("changing manager or visibility not permitted")
		}
		if input.ManagerID != nil {
			project.ManagerID = input.ManagerID
		}
		if input.VisibleToRoleIDs != nil {
			project.VisibleToRoleIDs = input.VisibleToRoleIDs
		}
	}
	if input.TicketTypeIDs != nil {
		project.TicketTypeIDs = input.TicketTypeIDs
	}

	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// DeleteProject removes a project with its tickets and subscriptions.
func (s *ProjectService) DeleteProject(ctx context.Context, actor *domain.User, projectID string) error {
	if err := s.requireProjectManagement(ctx, actor); err != nil {
		return err
	}
	if _, err := s.getProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.tickets.DeleteByProject(ctx, projectID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.subscriptions.DeleteByProject(ctx, projectID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.projects.Delete(ctx, projectID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// GetProject returns a project the actor can see.
func (s *ProjectService) GetProject(ctx context.Context, actor *domain.User, projectID string) (*domain.Project, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.access.CanAccessProject(actor, project) {
		return nil, apperrors.NewForbidden("project access denied")
	}
	return project, nil
}

// ListProjects returns the projects visible to the actor.
func (s *ProjectService) ListProjects(ctx context.Context, actor *domain.User) ([]domain.Project, error) {
	visible, err := s.access.AccessibleProjects(ctx, actor)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return visible, nil
}

// AddTicketType puts a ticket type on the project's allow-list. Permitted
// for managers and for the project's own manager.
func (s *ProjectService) AddTicketType(ctx context.Context, actor *domain.User, projectID, typeID string) (*domain.Project, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTypeManagement(ctx, actor, project); err != nil {
		return nil, err
	}
	if _, err := s.ticketTypes.GetByID(ctx, typeID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket type", map[string]any{"type_id": typeID})
		}
		return nil, apperrors.MapError(err)
	}
	if project.AllowsTicketType(typeID) {
		return project, nil
	}

	project.TicketTypeIDs = append(project.TicketTypeIDs, typeID)
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// RemoveTicketType drops a ticket type from the project's allow-list.
func (s *ProjectService) RemoveTicketType(ctx context.Context, actor *domain.User, projectID, typeID string) (*domain.Project, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.requireTypeManagement(ctx, actor, project); err != nil {
		return nil, err
	}

	kept := project.TicketTypeIDs[:0]
	for _, id := range project.TicketTypeIDs {
		if id != typeID {
			kept = append(kept, id)
		}
	}
	project.TicketTypeIDs = kept
	if err := s.projects.Update(ctx, project); err != nil {
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

// CreateTicketType registers a new ticket type.
func (s *ProjectService) CreateTicketType(ctx context.Context, actor *domain.User, name, description string) (*domain.TicketType, error) {
	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageTicketTypes)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		return nil, apperrors.NewForbidden("ticket type management not permitted")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("ticket type name is required", nil)
	}

	ticketType := &domain.TicketType{Name: name, Description: strings.TrimSpace(description)}
	if err := s.ticketTypes.Create(ctx, ticketType); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticketType, nil
}

// ProjectTicketTypes lists the types allowed in a project.
func (s *ProjectService) ProjectTicketTypes(ctx context.Context, actor *domain.User, projectID string) ([]domain.TicketType, error) {
	project, err := s.GetProject(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if len(project.TicketTypeIDs) == 0 {
		return nil, nil
	}
	types, err := s.ticketTypes.ListByIDs(ctx, project.TicketTypeIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return types, nil
}

func (s *ProjectService) getProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("project", map[string]any{"project_id": projectID})
		}
		return nil, apperrors.MapError(err)
	}
	return project, nil
}

func (s *ProjectService) requireProjectManagement(ctx context.Context, actor *domain.User) error {
	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageProjects)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("project management not permitted")
	}
	return nil
}

// requireTypeManagement allows managers, users holding the manage
// ticket types permission, and the manager of this specific project.
func (s *ProjectService) requireTypeManagement(ctx context.Context, actor *domain.User, project *domain.Project) error {
	if s.access.IsProjectManager(actor, project) {
		return nil
	}
	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageTicketTypes)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("ticket type management not permitted")
	}
	return nil
}
