package service

import (
	"context"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// QuoteService manages quotes; new quotes get the next Q number
type QuoteService = EntityService[domain.Quote, *domain.Quote]

// NewQuoteService creates a new QuoteService
func NewQuoteService(repo *repository.QuoteRepository, codes *CodeGenerator, logger *zap.Logger) *QuoteService {
	return NewEntityService[domain.Quote]("quote", repo, EntityServiceConfig[*domain.Quote]{
		Codes:    codes,
		CodeSpec: &QuoteNumbers,
		Hooks: EntityHooks[*domain.Quote]{
			BeforeCreate: func(_ context.Context, _ *auth.UserContext, q *domain.Quote) error {
				if q.Status == "" {
					q.Status = domain.QuoteStatusDraft
				}
				ComputeQuoteTotals(q)
				return nil
			},
			BeforeUpdate: func(_ context.Context, _ *auth.UserContext, q, existing *domain.Quote) error {
				if q.Status == "" {
					q.Status = existing.Status
				}
				ComputeQuoteTotals(q)
				return nil
			},
		},
	}, logger)
}

// ComputeQuoteTotals derives the subtotal price from cost and margin when it
// is missing, then tax and total. Amounts are rounded to 2 decimals.
func ComputeQuoteTotals(q *domain.Quote) {
	if q.SubtotalPrice.IsZero() && q.SubtotalCost.IsPositive() {
		q.SubtotalPrice = q.SubtotalCost.Mul(decimal.NewFromInt(1).Add(q.DefaultMarginPct.Div(hundred)))
	}
	q.SubtotalCost = q.SubtotalCost.Round(2)
	q.SubtotalPrice = q.SubtotalPrice.Round(2)

	q.TaxAmount = decimal.Zero
	if q.TaxPct.Valid {
		q.TaxAmount = q.SubtotalPrice.Mul(q.TaxPct.Decimal).Div(hundred).Round(2)
	}
	q.TotalPrice = q.SubtotalPrice.Add(q.TaxAmount)
}
