package repository

import (
	"context"
	"fmt"

	"github.com/ledgerline/crm-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordPtr constrains PT to a pointer to T implementing domain.Record
type RecordPtr[T any] interface {
	*T
	domain.Record
}

// EntityRepository handles database operations for one entity table
type EntityRepository[T any, PT RecordPtr[T]] struct {
	db        *gorm.DB
	listScope Scope
	preloads  []string
}

// EntityOption configures an EntityRepository
type EntityOption func(*entityOptions)

type entityOptions struct {
	listScope Scope
	preloads  []string
}

// WithElevatedList serves List outside the caller's row-level security scope
func WithElevatedList() EntityOption {
	return func(o *entityOptions) { o.listScope = ScopeElevated }
}

// WithPreload eagerly loads the named associations on reads
func WithPreload(associations ...string) EntityOption {
	return func(o *entityOptions) { o.preloads = append(o.preloads, associations...) }
}

// NewEntityRepository creates a new repository for T
func NewEntityRepository[T any, PT RecordPtr[T]](db *gorm.DB, opts ...EntityOption) *EntityRepository[T, PT] {
	o := entityOptions{listScope: ScopeCaller}
	for _, opt := range opts {
		opt(&o)
	}
	return &EntityRepository[T, PT]{db: db, listScope: o.listScope, preloads: o.preloads}
}

// DB returns the underlying connection
func (r *EntityRepository[T, PT]) DB() *gorm.DB {
	return r.db
}

// List returns every visible row, newest first
func (r *EntityRepository[T, PT]) List(ctx context.Context) ([]T, error) {
	rows := make([]T, 0)
	err := RunScoped(ctx, r.db, r.listScope, func(tx *gorm.DB) error {
		return r.withPreloads(tx).Order("created_at DESC").Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table(), err)
	}
	return rows, nil
}

// GetByID returns a single row or ErrNotFound
func (r *EntityRepository[T, PT]) GetByID(ctx context.Context, id string) (PT, error) {
	row := PT(new(T))
	err := RunScoped(ctx, r.db, ScopeCaller, func(tx *gorm.DB) error {
		return r.withPreloads(tx).Where("id = ?", id).First(row).Error
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Create inserts a row together with its loaded associations
func (r *EntityRepository[T, PT]) Create(ctx context.Context, row PT) error {
	return RunScoped(ctx, r.db, ScopeCaller, func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
}

// Update writes every column of the row; associations are left untouched
func (r *EntityRepository[T, PT]) Update(ctx context.Context, row PT) error {
	return RunScoped(ctx, r.db, ScopeCaller, func(tx *gorm.DB) error {
		return updateRow(tx, row)
	})
}

// Delete removes the row, returning ErrNotFound when nothing was deleted
func (r *EntityRepository[T, PT]) Delete(ctx context.Context, id string) error {
	return RunScoped(ctx, r.db, ScopeCaller, func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(PT(new(T)))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// LatestCode returns the code column of the most recently created row.
// It reads outside the caller scope so codes stay unique across callers.
func (r *EntityRepository[T, PT]) LatestCode(ctx context.Context, column string) (string, error) {
	var codes []string
	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		return tx.Model(PT(new(T))).
			Order("created_at DESC").
			Limit(1).
			Pluck(column, &codes).Error
	})
	if err != nil {
		return "", err
	}
	if len(codes) == 0 {
		return "", ErrNotFound
	}
	return codes[0], nil
}

// Codes returns every value of the code column, used to reconcile sequences
func (r *EntityRepository[T, PT]) Codes(ctx context.Context, column string) ([]string, error) {
	var codes []string
	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		return tx.Model(PT(new(T))).Pluck(column, &codes).Error
	})
	return codes, err
}

func (r *EntityRepository[T, PT]) withPreloads(tx *gorm.DB) *gorm.DB {
	for _, assoc := range r.preloads {
		tx = tx.Preload(assoc)
	}
	return tx
}

func (r *EntityRepository[T, PT]) table() string {
	stmt := &gorm.Statement{DB: r.db}
	if err := stmt.Parse(PT(new(T))); err != nil {
		return "rows"
	}
	return stmt.Schema.Table
}

func updateRow(tx *gorm.DB, row domain.Record) error {
	result := tx.Omit(clause.Associations).Select("*").Where("id = ?", row.Base().ID).Updates(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
