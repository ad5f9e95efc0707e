package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type VendorHandler struct {
	*EntityHandler[domain.Vendor, *domain.Vendor]
	vendorService *service.VendorService
}

func NewVendorHandler(vendorService *service.VendorService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *VendorHandler {
	return &VendorHandler{
		EntityHandler: NewEntityHandler[domain.Vendor]("vendors", "vendor", vendorService, responseCache, cacheControl, logger),
		vendorService: vendorService,
	}
}

// List godoc
// @Summary List vendors
// @Description Returns every vendor newest first. Responses are cached for the configured window.
// @Tags Vendors
// @Produce json
// @Success 200 {array} domain.Vendor
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendors [get]
func (h *VendorHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get vendor
// @Tags Vendors
// @Produce json
// @Param id path string true "Vendor ID" format(uuid)
// @Success 200 {object} domain.Vendor
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendors/{id} [get]
func (h *VendorHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create vendor
// @Description A vendor_code (V001, ...) is generated when absent.
// @Tags Vendors
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"vendor\" key"
// @Success 201 {object} domain.Vendor
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendors [post]
func (h *VendorHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update vendor
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Vendors
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"vendor\" key"
// @Success 200 {object} domain.Vendor
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendors [put]
func (h *VendorHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete vendor
// @Tags Vendors
// @Produce json
// @Param id query string true "Vendor ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendors [delete]
func (h *VendorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}

// ERPCandidates godoc
// @Summary List ERP vendor candidates
// @Description Suppliers from the ERP data warehouse whose GST number is not registered as a vendor yet
// @Tags Vendors
// @Produce json
// @Success 200 {array} domain.ERPVendor
// @Failure 503 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /vendors/erp-candidates [get]
func (h *VendorHandler) ERPCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := h.vendorService.ERPCandidates(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list ERP vendor candidates")
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}
