package repository

import (
	"context"
	"strings"

	"github.com/ledgerline/crm-api/internal/domain"
	"gorm.io/gorm"
)

// UserRepository handles database operations for user accounts
type UserRepository struct {
	*EntityRepository[domain.User, *domain.User]
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{EntityRepository: NewEntityRepository[domain.User](db)}
}

// GetByEmail looks a user up by email, case-insensitively.
// Sign-in has no caller yet, so the lookup runs elevated.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		return tx.Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another user already uses email
func (r *UserRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	var count int64
	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		query := tx.Model(&domain.User{}).Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
		if excludeID != "" {
			query = query.Where("id <> ?", excludeID)
		}
		return query.Count(&count).Error
	})
	return count > 0, err
}
