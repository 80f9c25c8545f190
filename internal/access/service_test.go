package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type fakeProjects struct {
	Projects       []domain.Project
	ManagedByUsers map[string]bool
}

func (f *fakeProjects) Create(ctx context.Context, project *domain.Project) error { return nil }
func (f *fakeProjects) Update(ctx context.Context, project *domain.Project) error { return nil }
func (f *fakeProjects) Delete(ctx context.Context, id string) error               { return nil }

func (f *fakeProjects) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	for i := range f.Projects {
		if f.Projects[i].ID == id {
			return &f.Projects[i], nil
		}
	}
	return nil, nil
}

func (f *fakeProjects) GetByKey(ctx context.Context, key string) (*domain.Project, error) {
	return nil, nil
}

func (f *fakeProjects) List(ctx context.Context) ([]domain.Project, error) {
	return f.Projects, nil
}

func (f *fakeProjects) ListVisibleToRole(ctx context.Context, roleID string) ([]domain.Project, error) {
	return nil, nil
}

func (f *fakeProjects) ExistsManagedBy(ctx context.Context, userID string) (bool, error) {
	return f.ManagedByUsers[userID], nil
}

func userWithRole(id string, name domain.RoleName, permissions ...string) *domain.User {
	return &domain.User{
		ID:     id,
		RoleID: "role-" + string(name),
		Role:   &domain.Role{ID: "role-" + string(name), Name: name, Permissions: permissions},
	}
}

func TestHasPermissionManagerShortCircuits(t *testing.T) {
	svc := NewService(&fakeProjects{})
	manager := userWithRole("m1", domain.RoleManager)

	for _, permission := range []string{domain.PermManageUsers, domain.PermManageProjects, domain.PermViewAnalytics} {
		allowed, err := svc.HasPermission(context.Background(), manager, permission)
		require.NoError(t, err)
		assert.True(t, allowed, permission)
	}
}

func TestHasPermissionSpecialistChangesStatus(t *testing.T) {
	svc := NewService(&fakeProjects{})
	specialist := userWithRole("s1", domain.RoleSpecialist, domain.PermCreateTicket)

	allowed, err := svc.HasPermission(context.Background(), specialist, domain.PermChangeStatus)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.HasPermission(context.Background(), specialist, domain.PermManageUsers)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermissionProjectManagerManagesTicketTypes(t *testing.T) {
	svc := NewService(&fakeProjects{ManagedByUsers: map[string]bool{"u1": true}})
	user := userWithRole("u1", domain.RoleClient, domain.PermCreateTicket)

	allowed, err := svc.HasPermission(context.Background(), user, domain.PermManageTicketTypes)
	require.NoError(t, err)
	assert.True(t, allowed)

	stranger := userWithRole("u2", domain.RoleClient, domain.PermCreateTicket)
	allowed, err = svc.HasPermission(context.Background(), stranger, domain.PermManageTicketTypes)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestHasPermissionFallsBackToRoleList(t *testing.T) {
	svc := NewService(&fakeProjects{})
	analyst := userWithRole("a1", domain.RoleAnalyst, domain.PermViewAnalytics, domain.PermGenerateReports)

	allowed, err := svc.HasPermission(context.Background(), analyst, domain.PermViewAnalytics)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.HasPermission(context.Background(), analyst, domain.PermManageProjects)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanAccessProject(t *testing.T) {
	managerID := "pm"
	project := &domain.Project{ID: "p1", ManagerID: &managerID, VisibleToRoleIDs: []string{"role-CLIENT"}}
	svc := NewService(&fakeProjects{})

	assert.True(t, svc.CanAccessProject(userWithRole("m1", domain.RoleManager), project))
	assert.True(t, svc.CanAccessProject(userWithRole("pm", domain.RoleSpecialist), project))
	assert.True(t, svc.CanAccessProject(userWithRole("c1", domain.RoleClient), project))
	assert.False(t, svc.CanAccessProject(userWithRole("d1", domain.RoleDeveloper), project))
}

func TestAccessibleProjectsFiltersByVisibility(t *testing.T) {
	managerID := "pm"
	svc := NewService(&fakeProjects{Projects: []domain.Project{
		{ID: "p1", VisibleToRoleIDs: []string{"role-CLIENT"}},
		{ID: "p2", VisibleToRoleIDs: []string{"role-ANALYST"}},
		{ID: "p3", ManagerID: &managerID},
	}})

	client := userWithRole("c1", domain.RoleClient)
	visible, err := svc.AccessibleProjects(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "p1", visible[0].ID)

	pm := userWithRole("pm", domain.RoleSpecialist)
	visible, err = svc.AccessibleProjects(context.Background(), pm)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "p3", visible[0].ID)

	manager := userWithRole("m1", domain.RoleManager)
	visible, err = svc.AccessibleProjects(context.Background(), manager)
	require.NoError(t, err)
	assert.Len(t, visible, 3)
}
