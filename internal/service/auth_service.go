package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// AuthService registers users and issues tokens.
type AuthService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tokens     *auth.TokenManager
	access     *access.Service
	bcryptCost int
}

// NewAuthService constructs the service.
func NewAuthService(users repository.UserRepository, roles repository.RoleRepository, tokens *auth.TokenManager, accessSvc *access.Service, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		roles:      roles,
		tokens:     tokens,
		access:     accessSvc,
		bcryptCost: bcryptCost,
	}
}

// AuthResult carries a signed token and the authenticated user.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// Register creates a user account. New accounts get the CLIENT role
// unless another role name is requested by a caller allowed to manage
// users.
func (s *AuthService) Register(ctx context.Context, actor *domain.User, login, password string, roleName domain.RoleName) (*domain.User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, apperrors.NewValidationError("login is required", nil)
	}
	if len(password) < 6 {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	if existing, err := s.users.GetByLogin(ctx, login); err == nil && existing != nil {
		return nil, apperrors.NewConflict("login already taken", map[string]any{"login": login})
	} else if err != nil && err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	if roleName == "" {
		roleName = domain.RoleClient
	}
	if roleName != domain.RoleClient {
		if actor == nil {
			return nil, apperrors.NewForbidden("role assignment requires authentication")
		}
		allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageUsers)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !allowed {
			return nil, apperrors.NewForbidden("role assignment not permitted")
		}
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": roleName})
		}
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Login:        login,
		PasswordHash: hash,
		RoleID:       role.ID,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	user, err := s.users.GetByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.RoleName())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ProfileUpdateInput carries the fields a user may change on their own
// account. Empty fields are left untouched.
type ProfileUpdateInput struct {
	Login           string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile changes the caller's own login or password. Password
// changes require the current password.
func (s *AuthService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileUpdateInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if login := strings.TrimSpace(input.Login); login != "" && login != user.Login {
		if existing, err := s.users.GetByLogin(ctx, login); err == nil && existing != nil {
			return nil, apperrors.NewConflict("login already taken", map[string]any{"login": login})
		} else if err != nil && err != pgx.ErrNoRows {
			return nil, apperrors.MapError(err)
		}
		user.Login = login
	}

	if input.NewPassword != "" {
		if len(input.NewPassword) < 6 {
			return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
		}
		if err := auth.ComparePassword(user.PasswordHash, input.CurrentPassword); err != nil {
			return nil, apperrors.NewUnauthorized("current password is incorrect")
		}
		hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers returns all accounts. Available to user managers and to
// anyone who manages a project.
func (s *AuthService) ListUsers(ctx context.Context, actor *domain.User) ([]domain.User, error) {
	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageUsers)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !allowed {
		manages, err := s.access.ManagesAnyProject(ctx, actor)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !manages {
			return nil, apperrors.NewForbidden("user management not permitted")
		}
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ChangeRole moves a user onto another role.
func (s *AuthService) ChangeRole(ctx context.Context, actor *domain.User, userID string, roleName domain.RoleName) (*domain.User, error) {
	if err := s.requireUserManagement(ctx, actor); err != nil {
		return nil, err
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": roleName})
		}
		return nil, apperrors.MapError(err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}

	user.RoleID = role.ID
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account.
func (s *AuthService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if err := s.requireUserManagement(ctx, actor); err != nil {
		return err
	}
	if actor.ID == userID {
		return apperrors.NewConflict("cannot delete own account", nil)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) requireUserManagement(ctx context.Context, actor *domain.User) error {
	allowed, err := s.access.HasPermission(ctx, actor, domain.PermManageUsers)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !allowed {
		return apperrors.NewForbidden("user management not permitted")
	}
	return nil
}
