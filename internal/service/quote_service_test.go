package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeQuoteTotals(t *testing.T) {
	tests := []struct {
		name      string
		quote     domain.Quote
		wantPrice string
		wantTax   string
		wantTotal string
	}{
		{
			name:      "price from cost and margin",
			quote:     domain.Quote{SubtotalCost: dec("1000"), DefaultMarginPct: dec("25"), TaxPct: decimal.NewNullDecimal(dec("18"))},
			wantPrice: "1250",
			wantTax:   "225",
			wantTotal: "1475",
		},
		{
			name:      "explicit price is kept",
			quote:     domain.Quote{SubtotalCost: dec("1000"), SubtotalPrice: dec("1100"), DefaultMarginPct: dec("25"), TaxPct: decimal.NewNullDecimal(dec("10"))},
			wantPrice: "1100",
			wantTax:   "110",
			wantTotal: "1210",
		},
		{
			name:      "no tax",
			quote:     domain.Quote{SubtotalPrice: dec("99.999")},
			wantPrice: "100",
			wantTax:   "0",
			wantTotal: "100",
		},
		{
			name:      "tax is rounded to cents",
			quote:     domain.Quote{SubtotalPrice: dec("10.01"), TaxPct: decimal.NewNullDecimal(dec("7.5"))},
			wantPrice: "10.01",
			wantTax:   "0.75",
			wantTotal: "10.76",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.quote
			service.ComputeQuoteTotals(&q)
			assert.True(t, dec(tt.wantPrice).Equal(q.SubtotalPrice), "price %s", q.SubtotalPrice)
			assert.True(t, dec(tt.wantTax).Equal(q.TaxAmount), "tax %s", q.TaxAmount)
			assert.True(t, dec(tt.wantTotal).Equal(q.TotalPrice), "total %s", q.TotalPrice)
		})
	}
}

func TestQuoteService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	codes := service.NewCodeGenerator(repository.NewCodeSequenceRepository(db), service.CodeStrategySequence, zap.NewNop())
	svc := service.NewQuoteService(repository.NewQuoteRepository(db), codes, zap.NewNop())
	ctx := callerContext(testutil.Caller(domain.PermissionWrite))

	newQuote := func() *domain.Quote {
		return &domain.Quote{
			RequirementID:    uuid.NewString(),
			ClientID:         uuid.NewString(),
			CurrencyCode:     "INR",
			DefaultMarginPct: dec("20"),
			SubtotalCost:     dec("500"),
			TaxPct:           decimal.NewNullDecimal(dec("18")),
		}
	}

	first, err := svc.Create(ctx, newQuote())
	require.NoError(t, err)
	assert.Equal(t, "Q001", first.QuoteNumber)
	assert.Equal(t, domain.QuoteStatusDraft, first.Status)
	assert.True(t, dec("708").Equal(first.TotalPrice))

	second, err := svc.Create(ctx, newQuote())
	require.NoError(t, err)
	assert.Equal(t, "Q002", second.QuoteNumber)

	loaded, err := svc.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, dec("600").Equal(loaded.SubtotalPrice))
	assert.True(t, dec("108").Equal(loaded.TaxAmount))
}
