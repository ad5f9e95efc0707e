package handler

import (
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/service"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	*EntityHandler[domain.Expense, *domain.Expense]
	receipts *service.ReceiptService
}

func NewExpenseHandler(expenseService *service.ExpenseService, receipts *service.ReceiptService, responseCache cache.ResponseCache, cacheControl string, logger *zap.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		EntityHandler: NewEntityHandler[domain.Expense]("expenses", "expense", expenseService, responseCache, cacheControl, logger).PartitionByCaller(),
		receipts:      receipts,
	}
}

// List godoc
// @Summary List expenses
// @Description Returns every expense newest first. Responses are cached for the configured window. Rows are filtered by the caller's row-level security scope.
// @Tags Expenses
// @Produce json
// @Success 200 {array} domain.Expense
// @Failure 401 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [get]
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.List(w, r)
}

// GetByID godoc
// @Summary Get expense
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID" format(uuid)
// @Success 200 {object} domain.Expense
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/{id} [get]
func (h *ExpenseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.GetByID(w, r)
}

// Create godoc
// @Summary Create expense
// @Description The caller becomes the executive unless executive_id is set.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"expense\" key"
// @Success 201 {object} domain.Expense
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [post]
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Create(w, r)
}

// Update godoc
// @Summary Update expense
// @Description The payload must carry id. Codes, creator and created_at are kept from the stored row.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body object true "Payload under the \"expense\" key"
// @Success 200 {object} domain.Expense
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [put]
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Update(w, r)
}

// Delete godoc
// @Summary Delete expense
// @Tags Expenses
// @Produce json
// @Param id query string true "Expense ID" format(uuid)
// @Success 200 {object} domain.SuccessResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses [delete]
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.EntityHandler.Delete(w, r)
}

// UploadReceipt godoc
// @Summary Upload expense receipt
// @Description Stores an image or PDF receipt and returns the URL to put in receipt_url
// @Tags Expenses
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt (jpeg, png, webp or pdf)"
// @Success 201 {object} domain.ReceiptUploadResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/receipts [post]
func (h *ExpenseHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	limit := h.receipts.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
	if err := r.ParseMultipartForm(limit); err != nil {
		respondWithError(w, http.StatusBadRequest, "Receipt upload must be multipart/form-data within the size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(file)
	}

	resp, err := h.receipts.Upload(r.Context(), header.Filename, contentType, header.Size, file)
	if err != nil {
		handleServiceError(w, h.logger, err, "upload receipt")
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// GetReceipt godoc
// @Summary Download expense receipt
// @Tags Expenses
// @Produce octet-stream
// @Param path path string true "Object path returned in receipt_url"
// @Success 200 {file} binary
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /expenses/receipts/{path} [get]
func (h *ExpenseHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	objectPath := chi.URLParam(r, "*")

	rc, err := h.receipts.Open(r.Context(), objectPath)
	if err != nil {
		handleServiceError(w, h.logger, err, "open receipt")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypeFromExt(objectPath))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("failed to stream receipt", zap.String("path", objectPath), zap.Error(err))
	}
}

// detectContentType sniffs the first bytes of an uploaded file and rewinds it
func detectContentType(file multipart.File) string {
	head := make([]byte, 512)
	n, _ := file.Read(head)
	_, _ = file.Seek(0, io.SeekStart)
	return http.DetectContentType(head[:n])
}

func contentTypeFromExt(objectPath string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(objectPath))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
