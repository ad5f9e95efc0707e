package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	*EntityHandler[domain.User, *domain.User]
}

func NewUserHandler(userService *service.UserService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		EntityHandler: NewEntityHandler[domain.User]("users", "user", userService, responseCache, cacheControl, logger),
	}
}

// List godoc
// @Summary List users
// @Description Returns every user newest first. Responses are cached for the configured window. Password hashes are never returned.
// @Tags Users
// @Produce json
// @Success 200 {array} domain.User
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [get]
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID" format(uuid)
// @Success 200 {object} domain.User
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create user
// @Description Admins only. The password is stored as a bcrypt hash.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"user\" key"
// @Success 201 {object} domain.User
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [post]
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update user
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Users
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"user\" key"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [put]
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete user
// @Tags Users
// @Produce json
// @Param id query string true "User ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /users [delete]
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}
