package repository

import (
	"context"

	"github.com/ledgerline/crm-api/internal/domain"
	"gorm.io/gorm"
)

type (
	ClientRepository     = EntityRepository[domain.Client, *domain.Client]
	LeadRepository       = EntityRepository[domain.Lead, *domain.Lead]
	QuoteRepository      = EntityRepository[domain.Quote, *domain.Quote]
	SalesOrderRepository = EntityRepository[domain.SalesOrder, *domain.SalesOrder]
	ExpenseRepository    = EntityRepository[domain.Expense, *domain.Expense]
)

// NewClientRepository lists clients elevated; the client directory is shared by every caller.
func NewClientRepository(db *gorm.DB) *ClientRepository {
	return NewEntityRepository[domain.Client](db, WithElevatedList())
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return NewEntityRepository[domain.Lead](db)
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return NewEntityRepository[domain.Quote](db)
}

func NewSalesOrderRepository(db *gorm.DB) *SalesOrderRepository {
	return NewEntityRepository[domain.SalesOrder](db)
}

func NewExpenseRepository(db *gorm.DB) *ExpenseRepository {
	return NewEntityRepository[domain.Expense](db)
}

// VendorRepository handles vendors
type VendorRepository struct {
	*EntityRepository[domain.Vendor, *domain.Vendor]
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{EntityRepository: NewEntityRepository[domain.Vendor](db)}
}

// GSTNumbers returns the set of registered vendor GST numbers
func (r *VendorRepository) GSTNumbers(ctx context.Context) (map[string]struct{}, error) {
	var numbers []string
	err := RunScoped(ctx, r.db, ScopeElevated, func(tx *gorm.DB) error {
		return tx.Model(&domain.Vendor{}).Where("gst_number IS NOT NULL").Pluck("gst_number", &numbers).Error
	})
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(numbers))
	for _, n := range numbers {
		set[n] = struct{}{}
	}
	return set, nil
}
