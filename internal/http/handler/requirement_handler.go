package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type RequirementHandler struct {
	*EntityHandler[domain.Requirement, *domain.Requirement]
}

func NewRequirementHandler(requirementService *service.RequirementService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *RequirementHandler {
	return &RequirementHandler{
		EntityHandler: NewEntityHandler[domain.Requirement]("requirements", "requirement", requirementService, responseCache, cacheControl, logger).PartitionByCaller(),
	}
}

// List godoc
// @Summary List requirements
// @Description Returns every requirement newest first. Responses are cached for the configured window. Items are included with every requirement.
// @Tags Requirements
// @Produce json
// @Success 200 {array} domain.Requirement
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requirements [get]
func (h *RequirementHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get requirement
// @Tags Requirements
// @Produce json
// @Param id path string true "Requirement ID" format(uuid)
// @Success 200 {object} domain.Requirement
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requirements/{id} [get]
func (h *RequirementHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create requirement
// @Description Items are stored in the same transaction.
// @Tags Requirements
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"requirement\" key"
// @Success 201 {object} domain.Requirement
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requirements [post]
func (h *RequirementHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update requirement
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Requirements
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"requirement\" key"
// @Success 200 {object} domain.Requirement
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requirements [put]
func (h *RequirementHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete requirement
// @Tags Requirements
// @Produce json
// @Param id query string true "Requirement ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /requirements [delete]
func (h *RequirementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}
