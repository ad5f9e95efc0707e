package service

import (
	"context"
	"fmt"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// ExpenseService manages expense claims
type ExpenseService = EntityService[domain.Expense, *domain.Expense]

// NewExpenseService creates a new ExpenseService. When receipts is set, the
// stored receipt of a deleted expense is removed as well.
func NewExpenseService(repo *repository.ExpenseRepository, receipts *ReceiptService, logger *zap.Logger) *ExpenseService {
	hooks := EntityHooks[*domain.Expense]{
		BeforeCreate: func(_ context.Context, caller *auth.UserContext, e *domain.Expense) error {
			if !e.Amount.IsPositive() {
				return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
			}
			e.Amount = e.Amount.Round(2)
			if e.Status == "" {
				e.Status = domain.ExpenseStatusSubmitted
			}
			stampApproval(caller, e, nil)
			return nil
		},
		BeforeUpdate: func(_ context.Context, caller *auth.UserContext, e, existing *domain.Expense) error {
			if !e.Amount.IsPositive() {
				return fmt.Errorf("%w: amount must be greater than 0", ErrInvalidInput)
			}
			e.Amount = e.Amount.Round(2)
			if e.Status == "" {
				e.Status = existing.Status
			}
			stampApproval(caller, e, existing)
			return nil
		},
	}
	if receipts != nil {
		hooks.AfterDelete = func(ctx context.Context, existing *domain.Expense) {
			if existing.ReceiptURL != nil {
				receipts.RemoveByURL(ctx, *existing.ReceiptURL)
			}
		}
	}

	return NewEntityService[domain.Expense]("expense", repo, EntityServiceConfig[*domain.Expense]{Hooks: hooks}, logger)
}

// stampApproval records the caller as approver when the status moves to a decision
func stampApproval(caller *auth.UserContext, e, existing *domain.Expense) {
	decided := e.Status == domain.ExpenseStatusApproved || e.Status == domain.ExpenseStatusRejected
	if !decided {
		e.ApprovedBy = nil
		return
	}
	changed := existing == nil || existing.Status != e.Status
	if changed || e.ApprovedBy == nil {
		approver := caller.UserID
		e.ApprovedBy = &approver
	}
}
