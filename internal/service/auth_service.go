package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// AuthService signs users in and out
type AuthService struct {
	users  *repository.UserRepository
	tokens *auth.TokenManager
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users *repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// SignIn verifies credentials and issues a session token
func (s *AuthService) SignIn(ctx context.Context, req *domain.SignInRequest) (*domain.SignInResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Info("sign-in rejected: unknown email", zap.String("email", req.Email))
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, auth.ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		s.logger.Info("sign-in rejected: wrong password", zap.String("user_id", user.ID))
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, fmt.Errorf("%w: account is %s", ErrPermissionDenied, user.Status)
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID), zap.String("permission", string(user.Permission)))
	return &domain.SignInResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		User:      user,
	}, nil
}

// SignOut revokes the caller's session token
func (s *AuthService) SignOut(ctx context.Context) error {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	s.tokens.RevokeCaller(caller)
	s.logger.Info("user signed out", zap.String("user_id", caller.UserID))
	return nil
}

// Me describes the current caller, refreshed from the users table for session callers
func (s *AuthService) Me(ctx context.Context) (*domain.CurrentUserResponse, error) {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	resp := &domain.CurrentUserResponse{
		ID:         caller.UserID,
		Email:      caller.Email,
		FullName:   caller.FullName,
		Permission: caller.Permission,
		System:     caller.System,
	}
	if caller.System {
		return resp, nil
	}

	user, err := s.users.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	resp.Email = user.Email
	resp.FullName = user.FullName
	resp.Permission = user.Permission
	return resp, nil
}
