package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/logger"
	"github.com/ledgerline/crm-api/internal/metrics"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// EntityStore is the persistence surface an EntityService needs
type EntityStore[T any, PT repository.RecordPtr[T]] interface {
	CodeSource
	List(ctx context.Context) ([]T, error)
	GetByID(ctx context.Context, id string) (PT, error)
	Create(ctx context.Context, row PT) error
	Update(ctx context.Context, row PT) error
	Delete(ctx context.Context, id string) error
}

// EntityHooks customize an EntityService for one entity
type EntityHooks[PT any] struct {
	// BeforeCreate runs after id, timestamps and creator are assigned.
	BeforeCreate func(ctx context.Context, caller *auth.UserContext, row PT) error
	// BeforeUpdate runs after immutable fields are restored from existing.
	BeforeUpdate func(ctx context.Context, caller *auth.UserContext, row, existing PT) error
	// BeforeDelete runs before the row is removed.
	BeforeDelete func(ctx context.Context, caller *auth.UserContext, existing PT) error
	// AfterDelete runs once the row is gone.
	AfterDelete func(ctx context.Context, existing PT)
	// Persist replaces the store's Update.
	Persist func(ctx context.Context, row PT) error
}

// EntityService implements create/read/update/delete for one entity type.
// Codes are generated for domain.Coded rows and creators stamped on domain.Owned rows.
type EntityService[T any, PT repository.RecordPtr[T]] struct {
	name        string
	store       EntityStore[T, PT]
	codes       *CodeGenerator
	codeSpec    *CodeSpec
	hooks       EntityHooks[PT]
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

// EntityServiceConfig carries the optional parts of an EntityService
type EntityServiceConfig[PT any] struct {
	Codes       *CodeGenerator
	CodeSpec    *CodeSpec
	Hooks       EntityHooks[PT]
	MaxAttempts int
	Now         func() time.Time
}

// NewEntityService creates a new EntityService
func NewEntityService[T any, PT repository.RecordPtr[T]](
	name string,
	store EntityStore[T, PT],
	cfg EntityServiceConfig[PT],
	logger *zap.Logger,
) *EntityService[T, PT] {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &EntityService[T, PT]{
		name:        name,
		store:       store,
		codes:       cfg.Codes,
		codeSpec:    cfg.CodeSpec,
		hooks:       cfg.Hooks,
		maxAttempts: cfg.MaxAttempts,
		now:         cfg.Now,
		logger:      logger,
	}
}

// WithClock replaces the time source used for timestamps
func (s *EntityService[T, PT]) WithClock(now func() time.Time) *EntityService[T, PT] {
	s.now = now
	return s
}

// WithMaxAttempts sets how often a create is retried after a code collision
func (s *EntityService[T, PT]) WithMaxAttempts(n int) *EntityService[T, PT] {
	if n > 0 {
		s.maxAttempts = n
	}
	return s
}

// Name returns the singular entity name, e.g. "sales_order"
func (s *EntityService[T, PT]) Name() string {
	return s.name
}

// List returns all rows visible to the caller, newest first
func (s *EntityService[T, PT]) List(ctx context.Context) ([]T, error) {
	rows, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByID returns one row
func (s *EntityService[T, PT]) GetByID(ctx context.Context, id string) (PT, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}
	row, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, s.name, id)
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.name, err)
	}
	return row, nil
}

// Create persists a new row. Missing id, timestamps, creator and code are
// assigned; values already present in the payload are kept.
func (s *EntityService[T, PT]) Create(ctx context.Context, row PT) (PT, error) {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s payload is required", ErrInvalidInput, s.name)
	}

	now := s.now().UTC()
	base := row.Base()
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	if base.UpdatedAt.IsZero() {
		base.UpdatedAt = now
	}
	if owned, ok := any(row).(domain.Owned); ok && *owned.Owner() == "" {
		*owned.Owner() = caller.UserID
	}

	if s.hooks.BeforeCreate != nil {
		if err := s.hooks.BeforeCreate(ctx, caller, row); err != nil {
			return nil, err
		}
	}

	if err := s.insert(ctx, row); err != nil {
		return nil, err
	}

	logger.WithUser(logger.WithEntity(s.logger, s.name, base.ID), caller.UserID, caller.Email).
		Info(s.name+" created", zap.String("code", s.codeOf(row)))
	return row, nil
}

// insert creates the row, generating a code when needed and retrying when a
// concurrent create took the same code.
func (s *EntityService[T, PT]) insert(ctx context.Context, row PT) error {
	coded, isCoded := any(row).(domain.Coded)
	generate := isCoded && s.codeSpec != nil && s.codes != nil && *coded.Code() == ""

	attempts := 1
	if generate {
		attempts = s.maxAttempts
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if generate {
			*coded.Code() = s.codes.Next(ctx, *s.codeSpec, s.store)
		}

		err = s.store.Create(ctx, row)
		if err == nil {
			return nil
		}
		if !repository.IsDuplicateKey(err) {
			return fmt.Errorf("failed to create %s: %w", s.name, err)
		}
		if generate {
			s.logger.Warn("generated code already taken, retrying",
				zap.String("entity", s.name),
				zap.String("code", *coded.Code()),
				zap.Int("attempt", attempt),
			)
			metrics.ObserveCodeConflict(s.codeSpec.Prefix)
		}
	}

	if generate {
		*coded.Code() = ""
	}
	return fmt.Errorf("%w: %s already exists: %v", ErrConflict, s.name, err)
}

// Update overwrites the mutable fields of an existing row. The code, creator
// and created_at always come from the stored row; updated_at is set to now.
func (s *EntityService[T, PT]) Update(ctx context.Context, row PT) (PT, error) {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s payload is required", ErrInvalidInput, s.name)
	}
	id := row.Base().ID
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	row.Base().CreatedAt = existing.Base().CreatedAt
	row.Base().UpdatedAt = s.now().UTC()
	if owned, ok := any(row).(domain.Owned); ok {
		*owned.Owner() = *any(existing).(domain.Owned).Owner()
	}
	if coded, ok := any(row).(domain.Coded); ok {
		*coded.Code() = *any(existing).(domain.Coded).Code()
	}

	if s.hooks.BeforeUpdate != nil {
		if err := s.hooks.BeforeUpdate(ctx, caller, row, existing); err != nil {
			return nil, err
		}
	}

	persist := s.store.Update
	if s.hooks.Persist != nil {
		persist = s.hooks.Persist
	}
	if err := persist(ctx, row); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, s.name, id)
		}
		if repository.IsDuplicateKey(err) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("failed to update %s: %w", s.name, err)
	}

	logger.WithUser(logger.WithEntity(s.logger, s.name, id), caller.UserID, caller.Email).
		Info(s.name + " updated")

	return s.GetByID(ctx, id)
}

// Delete removes a row permanently
func (s *EntityService[T, PT]) Delete(ctx context.Context, id string) error {
	caller, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidInput)
	}

	var existing PT
	if s.hooks.BeforeDelete != nil || s.hooks.AfterDelete != nil {
		var err error
		existing, err = s.GetByID(ctx, id)
		if err != nil {
			return err
		}
	}
	if s.hooks.BeforeDelete != nil {
		if err := s.hooks.BeforeDelete(ctx, caller, existing); err != nil {
			return err
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s %s", ErrNotFound, s.name, id)
		}
		return fmt.Errorf("failed to delete %s: %w", s.name, err)
	}

	if s.hooks.AfterDelete != nil {
		s.hooks.AfterDelete(ctx, existing)
	}

	logger.WithUser(logger.WithEntity(s.logger, s.name, id), caller.UserID, caller.Email).
		Info(s.name + " deleted")
	return nil
}

// ReconcileCodes raises the entity's code sequence to its highest existing code
func (s *EntityService[T, PT]) ReconcileCodes(ctx context.Context) (int64, bool, error) {
	if s.codeSpec == nil || s.codes == nil {
		return 0, false, nil
	}
	return s.codes.Reconcile(ctx, *s.codeSpec, s.store)
}

func (s *EntityService[T, PT]) codeOf(row PT) string {
	if coded, ok := any(row).(domain.Coded); ok {
		return *coded.Code()
	}
	return ""
}
