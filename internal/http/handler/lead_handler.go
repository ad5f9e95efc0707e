package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	*EntityHandler[domain.Lead, *domain.Lead]
}

func NewLeadHandler(leadService *service.LeadService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		EntityHandler: NewEntityHandler[domain.Lead]("leads", "lead", leadService, responseCache, cacheControl, logger).PartitionByCaller(),
	}
}

// List godoc
// @Summary List leads
// @Description Returns every lead newest first. Responses are cached for the configured window. Rows are filtered by the caller's row-level security scope.
// @Tags Leads
// @Produce json
// @Success 200 {array} domain.Lead
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Success 200 {object} domain.Lead
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create lead
// @Description New leads default to status new.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"lead\" key"
// @Success 201 {object} domain.Lead
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update lead
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"lead\" key"
// @Success 200 {object} domain.Lead
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [put]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete lead
// @Tags Leads
// @Produce json
// @Param id query string true "Lead ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /leads [delete]
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}
