package repository

import (
	"context"

	"github.com/ledgerline/crm-api/internal/domain"
	"gorm.io/gorm"
)

// RequirementRepository handles requirements and their items
type RequirementRepository struct {
	*EntityRepository[domain.Requirement, *domain.Requirement]
}

func NewRequirementRepository(db *gorm.DB) *RequirementRepository {
	return &RequirementRepository{
		EntityRepository: NewEntityRepository[domain.Requirement](db, WithPreload("Items")),
	}
}

// UpdateWithItems updates the requirement and, when replaceItems is set,
// swaps its items for req.Items in the same transaction.
func (r *RequirementRepository) UpdateWithItems(ctx context.Context, req *domain.Requirement, replaceItems bool) error {
	return RunScoped(ctx, r.db, ScopeCaller, func(tx *gorm.DB) error {
		if err := updateRow(tx, req); err != nil {
			return err
		}
		if !replaceItems {
			return nil
		}
		if err := tx.Where("requirement_id = ?", req.ID).Delete(&domain.RequirementItem{}).Error; err != nil {
			return err
		}
		if len(req.Items) == 0 {
			return nil
		}
		return tx.Create(&req.Items).Error
	})
}
