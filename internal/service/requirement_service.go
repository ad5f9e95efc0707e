package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// RequirementService manages requirements together with their items
type RequirementService = EntityService[domain.Requirement, *domain.Requirement]

// NewRequirementService creates a new RequirementService. Items are written in
// the same transaction as the requirement; an update replaces the items only
// when the payload carries an items list.
func NewRequirementService(repo *repository.RequirementRepository, logger *zap.Logger) *RequirementService {
	return NewEntityService[domain.Requirement]("requirement", repo, EntityServiceConfig[*domain.Requirement]{
		Hooks: EntityHooks[*domain.Requirement]{
			BeforeCreate: func(_ context.Context, _ *auth.UserContext, r *domain.Requirement) error {
				if r.Status == "" {
					r.Status = domain.RequirementStatusNew
				}
				r.AssignedToName = nil
				return prepareItems(r)
			},
			BeforeUpdate: func(_ context.Context, _ *auth.UserContext, r, existing *domain.Requirement) error {
				if r.Status == "" {
					r.Status = existing.Status
				}
				r.AssignedToName = nil
				return prepareItems(r)
			},
			Persist: func(ctx context.Context, r *domain.Requirement) error {
				return repo.UpdateWithItems(ctx, r, r.Items != nil)
			},
		},
	}, logger)
}

func prepareItems(r *domain.Requirement) error {
	for i := range r.Items {
		item := &r.Items[i]
		if !item.Quantity.IsPositive() {
			return fmt.Errorf("%w: items[%d].quantity must be greater than 0", ErrInvalidInput, i)
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		item.RequirementID = r.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = r.UpdatedAt
		}
	}
	return nil
}
