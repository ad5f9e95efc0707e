package handler

import (
	"net/http"

	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// SignIn godoc
// @Summary Sign in
// @Description Exchanges email and password for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SignInRequest true "Credentials"
// @Success 200 {object} domain.SignInResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Account suspended"
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.authService.SignIn(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "sign in")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// SignOut godoc
// @Summary Sign out
// @Description Revokes the bearer token used for this request
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.SuccessResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(r.Context()); err != nil {
		handleServiceError(w, h.logger, err, "sign out")
		return
	}
	respondJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
}

// Me godoc
// @Summary Get current authenticated user
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.CurrentUserResponse
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.authService.Me(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "load current user")
		return
	}
	respondJSON(w, http.StatusOK, me)
}
