package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/service"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ProjectsHandler manages project and ticket type endpoints.
type ProjectsHandler struct {
	projects *service.ProjectService
	sla      *service.SlaService
}

// NewProjectsHandler constructs handler.
func NewProjectsHandler(projects *service.ProjectService, sla *service.SlaService) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, sla: sla}
}

// CreateProject POST /projects.
func (h *ProjectsHandler) CreateProject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	project, err := h.projects.CreateProject(c.Context(), principal.User, projectInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": projectResponse(project)})
}

// UpdateProject PATCH /projects/:id.
func (h *ProjectsHandler) UpdateProject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	project, err := h.projects.UpdateProject(c.Context(), principal.User, c.Params("id"), projectInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// DeleteProject DELETE /projects/:id.
func (h *ProjectsHandler) DeleteProject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.projects.DeleteProject(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// GetProject GET /projects/:id.
func (h *ProjectsHandler) GetProject(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	project, err := h.projects.GetProject(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// ListProjects GET /projects.
func (h *ProjectsHandler) ListProjects(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	projects, err := h.projects.ListProjects(c.Context(), principal.User)
	if err != nil {
		return err
	}
	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, projectResponse(&projects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddTicketType POST /projects/:id/ticket-types/:typeId.
func (h *ProjectsHandler) AddTicketType(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	project, err := h.projects.AddTicketType(c.Context(), principal.User, c.Params("id"), c.Params("typeId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// RemoveTicketType DELETE /projects/:id/ticket-types/:typeId.
func (h *ProjectsHandler) RemoveTicketType(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	project, err := h.projects.RemoveTicketType(c.Context(), principal.User, c.Params("id"), c.Params("typeId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": projectResponse(project)})
}

// ListProjectTicketTypes GET /projects/:id/ticket-types.
func (h *ProjectsHandler) ListProjectTicketTypes(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	types, err := h.projects.ProjectTicketTypes(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketTypeResponse, 0, len(types))
	for _, ticketType := range types {
		items = append(items, dto.TicketTypeResponse{
			ID:          ticketType.ID,
			Name:        ticketType.Name,
			Description: ticketType.Description,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTicketType POST /ticket-types.
func (h *ProjectsHandler) CreateTicketType(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketTypeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticketType, err := h.projects.CreateTicketType(c.Context(), principal.User, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.TicketTypeResponse{
		ID:          ticketType.ID,
		Name:        ticketType.Name,
		Description: ticketType.Description,
	}})
}

// CreateSlaPolicy POST /sla-policies.
func (h *ProjectsHandler) CreateSlaPolicy(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if principal.RoleName() != domain.RoleManager {
		return apperrors.NewForbidden("sla policy management not permitted")
	}
	var req dto.SlaPolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	policy := &domain.SlaPolicy{
		TicketTypeID:   req.TicketTypeID,
		Priority:       req.Priority,
		ResponseTime:   req.ResponseTime,
		ResolutionTime: req.ResolutionTime,
	}
	if err := h.sla.CreatePolicy(c.Context(), policy); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": slaPolicyResponse(policy)})
}

// ListSlaPolicies GET /sla-policies.
func (h *ProjectsHandler) ListSlaPolicies(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	policies, err := h.sla.ListPolicies(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.SlaPolicyResponse, 0, len(policies))
	for i := range policies {
		items = append(items, slaPolicyResponse(&policies[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func projectInput(req dto.ProjectRequest) service.ProjectInput {
	return service.ProjectInput{
		Name:             req.Name,
		Key:              req.Key,
		ManagerID:        req.ManagerID,
		TicketTypeIDs:    req.TicketTypeIDs,
		VisibleToRoleIDs: req.VisibleToRoleIDs,
	}
}

func projectResponse(project *domain.Project) dto.ProjectResponse {
	return dto.ProjectResponse{
		ID:               project.ID,
		Name:             project.Name,
		Key:              project.Key,
		ManagerID:        project.ManagerID,
		TicketTypeIDs:    project.TicketTypeIDs,
		VisibleToRoleIDs: project.VisibleToRoleIDs,
		CreatedAt:        project.CreatedAt,
		UpdatedAt:        project.UpdatedAt,
	}
}

func slaPolicyResponse(policy *domain.SlaPolicy) dto.SlaPolicyResponse {
	return dto.SlaPolicyResponse{
		ID:             policy.ID,
		TicketTypeID:   policy.TicketTypeID,
		Priority:       policy.Priority,
		ResponseTime:   policy.ResponseTime,
		ResolutionTime: policy.ResolutionTime,
	}
}
