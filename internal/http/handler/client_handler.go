package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type ClientHandler struct {
	*EntityHandler[domain.Client, *domain.Client]
}

func NewClientHandler(clientService *service.ClientService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *ClientHandler {
	return &ClientHandler{
		EntityHandler: NewEntityHandler[domain.Client]("clients", "client", clientService, responseCache, cacheControl, logger),
	}
}

// List godoc
// @Summary List clients
// @Description Returns every client newest first. Responses are cached for the configured window. Clients are readable without a session and are not filtered per caller.
// @Tags Clients
// @Produce json
// @Success 200 {array} domain.Client
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /clients [get]
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get client
// @Tags Clients
// @Produce json
// @Param id path string true "Client ID" format(uuid)
// @Success 200 {object} domain.Client
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients/{id} [get]
func (h *ClientHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create client
// @Description A client_code (C001, C002, ...) is generated when absent.
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"client\" key"
// @Success 201 {object} domain.Client
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [post]
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update client
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Clients
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"client\" key"
// @Success 200 {object} domain.Client
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [put]
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete client
// @Tags Clients
// @Produce json
// @Param id query string true "Client ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /clients [delete]
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}
