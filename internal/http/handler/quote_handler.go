package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type QuoteHandler struct {
	*EntityHandler[domain.Quote, *domain.Quote]
}

func NewQuoteHandler(quoteService *service.QuoteService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{
		EntityHandler: NewEntityHandler[domain.Quote]("quotes", "quote", quoteService, responseCache, cacheControl, logger),
	}
}

// List godoc
// @Summary List quotes
// @Description Returns every quote newest first. Responses are cached for the configured window. Rows are filtered by the caller's row-level security scope.
// @Tags Quotes
// @Produce json
// @Success 200 {array} domain.Quote
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [get]
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get quote
// @Tags Quotes
// @Produce json
// @Param id path string true "Quote ID" format(uuid)
// @Success 200 {object} domain.Quote
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes/{id} [get]
func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create quote
// @Description A quote_number is generated and tax/total amounts are computed.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"quote\" key"
// @Success 201 {object} domain.Quote
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [post]
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update quote
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Quotes
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"quote\" key"
// @Success 200 {object} domain.Quote
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [put]
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete quote
// @Tags Quotes
// @Produce json
// @Param id query string true "Quote ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /quotes [delete]
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}
