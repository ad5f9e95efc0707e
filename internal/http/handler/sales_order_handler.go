package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type SalesOrderHandler struct {
	*EntityHandler[domain.SalesOrder, *domain.SalesOrder]
}

func NewSalesOrderHandler(salesOrderService *service.SalesOrderService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *SalesOrderHandler {
	return &SalesOrderHandler{
		EntityHandler: NewEntityHandler[domain.SalesOrder]("sales-orders", "sales_order", salesOrderService, responseCache, cacheControl, logger),
	}
}

// List godoc
// @Summary List sales orders
// @Description Returns every sales order newest first. Responses are cached for the configured window. Rows are filtered by the caller's row-level security scope.
// @Tags Sales Orders
// @Produce json
// @Success 200 {array} domain.SalesOrder
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sales-orders [get]
func (h *SalesOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get sales order
// @Tags Sales Orders
// @Produce json
// @Param id path string true "SalesOrder ID" format(uuid)
// @Success 200 {object} domain.SalesOrder
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sales-orders/{id} [get]
func (h *SalesOrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create sales order
// @Description An order_number (SO001, ...) is generated; order_date defaults to today.
// @Tags Sales Orders
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"sales_order\" key"
// @Success 201 {object} domain.SalesOrder
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sales-orders [post]
func (h *SalesOrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update sales order
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Sales Orders
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"sales_order\" key"
// @Success 200 {object} domain.SalesOrder
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sales-orders [put]
func (h *SalesOrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete sales order
// @Tags Sales Orders
// @Produce json
// @Param id query string true "SalesOrder ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /sales-orders [delete]
func (h *SalesOrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}
