package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ledgerline/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CodeSequenceRepository handles the per-prefix counters behind generated codes
type CodeSequenceRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCodeSequenceRepository creates a new CodeSequenceRepository
func NewCodeSequenceRepository(db *gorm.DB) *CodeSequenceRepository {
	return &CodeSequenceRepository{db: db, now: time.Now}
}

// NextValue atomically advances the sequence for prefix and returns the new value.
// The row is locked with SELECT FOR UPDATE; the result is at least floor+1 so a
// sequence that lags behind existing codes catches up on first use.
func (r *CodeSequenceRepository) NextValue(ctx context.Context, prefix string, floor int64) (int64, error) {
	var next int64

	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		var seq domain.CodeSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ?", prefix).
			First(&seq)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			next = floor + 1
			seq = domain.CodeSequence{Prefix: prefix, LastValue: next, UpdatedAt: r.now()}
			if err := tx.Create(&seq).Error; err != nil {
				return fmt.Errorf("failed to create code sequence: %w", err)
			}
		case result.Error != nil:
			return fmt.Errorf("failed to get code sequence: %w", result.Error)
		default:
			next = max(seq.LastValue, floor) + 1
			if err := tx.Model(&seq).Updates(map[string]interface{}{
				"last_value": next,
				"updated_at": r.now(),
			}).Error; err != nil {
				return fmt.Errorf("failed to update code sequence: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return next, nil
}

// Raise moves the sequence up to value. It never lowers a sequence.
func (r *CodeSequenceRepository) Raise(ctx context.Context, prefix string, value int64) (bool, error) {
	raised := false

	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		var seq domain.CodeSequence
		result := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("prefix = ?", prefix).
			First(&seq)

		switch {
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			raised = value > 0
			if !raised {
				return nil
			}
			return tx.Create(&domain.CodeSequence{Prefix: prefix, LastValue: value, UpdatedAt: r.now()}).Error
		case result.Error != nil:
			return fmt.Errorf("failed to get code sequence: %w", result.Error)
		case value > seq.LastValue:
			raised = true
			return tx.Model(&seq).Updates(map[string]interface{}{
				"last_value": value,
				"updated_at": r.now(),
			}).Error
		}
		return nil
	})

	return raised, err
}

// Current returns the last issued value for prefix, 0 when none was issued
func (r *CodeSequenceRepository) Current(ctx context.Context, prefix string) (int64, error) {
	var seq domain.CodeSequence
	err := r.db.WithContext(ctx).Where("prefix = ?", prefix).First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get code sequence: %w", err)
	}
	return seq.LastValue, nil
}

// List returns all sequences ordered by prefix
func (r *CodeSequenceRepository) List(ctx context.Context) ([]domain.CodeSequence, error) {
	var sequences []domain.CodeSequence
	err := r.db.WithContext(ctx).Order("prefix ASC").Find(&sequences).Error
	return sequences, err
}
