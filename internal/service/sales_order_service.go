package service

import (
	"context"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// SalesOrderService manages sales orders; new orders get the next SO number
type SalesOrderService = EntityService[domain.SalesOrder, *domain.SalesOrder]

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(repo *repository.SalesOrderRepository, codes *CodeGenerator, logger *zap.Logger) *SalesOrderService {
	return NewEntityService[domain.SalesOrder]("sales_order", repo, EntityServiceConfig[*domain.SalesOrder]{
		Codes:    codes,
		CodeSpec: &SalesOrderCodes,
		Hooks: EntityHooks[*domain.SalesOrder]{
			BeforeCreate: func(_ context.Context, _ *auth.UserContext, so *domain.SalesOrder) error {
				if so.Status == "" {
					so.Status = domain.SalesOrderStatusDraft
				}
				if so.OrderDate == "" {
					so.OrderDate = domain.NewDate(so.CreatedAt)
				}
				so.TotalCost = so.TotalCost.Round(2)
				so.TotalPrice = so.TotalPrice.Round(2)
				return nil
			},
			BeforeUpdate: func(_ context.Context, _ *auth.UserContext, so, existing *domain.SalesOrder) error {
				if so.Status == "" {
					so.Status = existing.Status
				}
				if so.OrderDate == "" {
					so.OrderDate = existing.OrderDate
				}
				so.TotalCost = so.TotalCost.Round(2)
				so.TotalPrice = so.TotalPrice.Round(2)
				return nil
			},
		},
	}, logger)
}
