package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// UserService manages user accounts. Passwords are accepted in clear text on
// input and stored as bcrypt hashes only.
type UserService struct {
	*EntityService[domain.User, *domain.User]
	repo *repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.UserRepository, bcryptCost int, logger *zap.Logger) *UserService {
	s := &UserService{repo: repo}

	s.EntityService = NewEntityService[domain.User]("user", repo, EntityServiceConfig[*domain.User]{
		Hooks: EntityHooks[*domain.User]{
			BeforeCreate: func(ctx context.Context, caller *auth.UserContext, u *domain.User) error {
				if !caller.IsAdmin() {
					return fmt.Errorf("%w: only admins can create users", ErrPermissionDenied)
				}
				if u.Permission == domain.PermissionSuperAdmin && !caller.IsSuperAdmin() {
					return fmt.Errorf("%w: only super admins can grant super_admin", ErrPermissionDenied)
				}
				if u.Status == "" {
					u.Status = domain.UserStatusActive
				}
				if err := s.checkEmail(ctx, u, ""); err != nil {
					return err
				}
				return setPassword(u, "", bcryptCost)
			},
			BeforeUpdate: func(ctx context.Context, caller *auth.UserContext, u, existing *domain.User) error {
				self := caller.UserID == existing.ID
				if !caller.IsAdmin() && !self {
					return fmt.Errorf("%w: cannot edit another user", ErrPermissionDenied)
				}
				if !caller.IsAdmin() && u.Permission != existing.Permission {
					return fmt.Errorf("%w: cannot change own permission", ErrPermissionDenied)
				}
				if u.Permission == domain.PermissionSuperAdmin && existing.Permission != domain.PermissionSuperAdmin && !caller.IsSuperAdmin() {
					return fmt.Errorf("%w: only super admins can grant super_admin", ErrPermissionDenied)
				}
				if existing.Permission == domain.PermissionSuperAdmin && !self && !caller.IsSuperAdmin() {
					return fmt.Errorf("%w: super admin accounts can only be edited by themselves", ErrPermissionDenied)
				}
				if u.Status == "" {
					u.Status = existing.Status
				}
				if !caller.IsAdmin() && u.Status != existing.Status {
					return fmt.Errorf("%w: cannot change own status", ErrPermissionDenied)
				}
				if err := s.checkEmail(ctx, u, existing.ID); err != nil {
					return err
				}
				return setPassword(u, existing.PasswordHash, bcryptCost)
			},
			BeforeDelete: func(_ context.Context, caller *auth.UserContext, existing *domain.User) error {
				if !caller.IsAdmin() {
					return fmt.Errorf("%w: only admins can delete users", ErrPermissionDenied)
				}
				if caller.UserID == existing.ID {
					return fmt.Errorf("%w: cannot delete own account", ErrPermissionDenied)
				}
				if existing.Permission == domain.PermissionSuperAdmin && !caller.System {
					return fmt.Errorf("%w: super admin accounts cannot be deleted", ErrPermissionDenied)
				}
				return nil
			},
		},
	}, logger)

	return s
}

func (s *UserService) checkEmail(ctx context.Context, u *domain.User, excludeID string) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	taken, err := s.repo.EmailTaken(ctx, u.Email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return fmt.Errorf("%w: email %s is already registered", ErrConflict, u.Email)
	}
	return nil
}

// setPassword hashes u.Password into PasswordHash, keeping currentHash when
// no new password was supplied. The clear text is always cleared.
func setPassword(u *domain.User, currentHash string, cost int) error {
	defer func() { u.Password = "" }()

	if u.Password == "" {
		u.PasswordHash = currentHash
		return nil
	}
	if problem := domain.PasswordProblem(u.Password); problem != "" {
		return fmt.Errorf("%w: %s", ErrInvalidInput, problem)
	}
	hash, err := auth.HashPassword(u.Password, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}
