package access

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
)

// Service answers permission questions for authenticated users. Rules are
// checked in precedence order: the MANAGER role short-circuits everything,
// SPECIALIST is always allowed to change ticket status, a user who manages
// at least one project may manage ticket types, and everything else falls
// through to the role's permission list.
type Service struct {
	projects repository.ProjectRepository
}

// NewService constructs the access service.
func NewService(projects repository.ProjectRepository) *Service {
	return &Service{projects: projects}
}

// HasPermission reports whether the user may perform the named action.
func (s *Service) HasPermission(ctx context.Context, user *domain.User, permission string) (bool, error) {
	switch user.RoleName() {
	case domain.RoleManager:
		return true, nil
	case domain.RoleSpecialist:
		if permission == domain.PermChangeStatus {
			return true, nil
		}
	}

	if permission == domain.PermManageTicketTypes {
		manages, err := s.projects.ExistsManagedBy(ctx, user.ID)
		if err != nil {
			return false, err
		}
		if manages {
			return true, nil
		}
	}

	if user.Role == nil {
		return false, nil
	}
	return user.Role.HasPermission(permission), nil
}

// CanAccessProject reports whether the user may see the project and its
// tickets. Managers see everything, a project's own manager always has
// access, and other users need their role on the visibility list.
func (s *Service) CanAccessProject(user *domain.User, project *domain.Project) bool {
	if user.RoleName() == domain.RoleManager {
		return true
	}
	if s.IsProjectManager(user, project) {
		return true
	}
	return project.VisibleToRole(user.RoleID)
}

// IsProjectManager reports whether the user manages this specific project.
func (s *Service) IsProjectManager(user *domain.User, project *domain.Project) bool {
	return project.ManagerID != nil && *project.ManagerID == user.ID
}

// ManagesAnyProject reports whether the user manages at least one project.
func (s *Service) ManagesAnyProject(ctx context.Context, user *domain.User) (bool, error) {
	return s.projects.ExistsManagedBy(ctx, user.ID)
}

// AccessibleProjects filters the full project list down to those the user
// may see.
func (s *Service) AccessibleProjects(ctx context.Context, user *domain.User) ([]domain.Project, error) {
	all, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	var visible []domain.Project
	for _, project := range all {
		p := project
		if s.CanAccessProject(user, &p) {
			visible = append(visible, project)
		}
	}
	return visible, nil
}
