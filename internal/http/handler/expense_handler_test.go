package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/http/handler"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/storage"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const pngHeader = "\x89PNG\r\n\x1a\n0000"

func expenseRouter(t *testing.T, caller *auth.UserContext, maxBytes int64) chi.Router {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	store, err := storage.NewLocalStorage(t.TempDir(), "/api/expenses/receipts")
	require.NoError(t, err)
	receipts := service.NewReceiptService(store, maxBytes, logger)
	expenses := service.NewExpenseService(repository.NewExpenseRepository(db), receipts, logger)
	h := handler.NewExpenseHandler(expenses, receipts, nil, "", logger)

	r := chi.NewRouter()
	if caller != nil {
		r.Use(withCaller(caller))
	}
	r.Post("/api/expenses/receipts", h.UploadReceipt)
	r.Get("/api/expenses/receipts/*", h.GetReceipt)
	r.Post("/api/expenses", h.Create)
	return r
}

func multipartReceipt(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestExpenseHandler_UploadAndFetchReceipt(t *testing.T) {
	caller := testutil.Caller(domain.PermissionWrite)
	r := expenseRouter(t, caller, 1<<20)

	body, contentType := multipartReceipt(t, "file", "lunch.png", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/expenses/receipts", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var uploaded domain.ReceiptUploadResponse
	decodeBody(t, rr, &uploaded)
	assert.True(t, strings.HasPrefix(uploaded.ReceiptURL, "/api/expenses/receipts/receipts/"+caller.UserID+"/"))
	assert.Equal(t, "lunch.png", uploaded.FileName)

	fetch := httptest.NewRecorder()
	r.ServeHTTP(fetch, httptest.NewRequest(http.MethodGet, uploaded.ReceiptURL, nil))
	require.Equal(t, http.StatusOK, fetch.Code)
	assert.Equal(t, "image/png", fetch.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, fetch.Body.String())

	// the receipt URL is accepted on an expense payload
	expense := map[string]interface{}{
		"expense": map[string]interface{}{
			"category_code": "food",
			"amount":        "120.00",
			"currency_code": "INR",
			"expense_date":  "2024-05-02",
			"receipt_url":   uploaded.ReceiptURL,
		},
	}
	created := httptest.NewRecorder()
	r.ServeHTTP(created, newJSONRequest(t, http.MethodPost, "/api/expenses", expense, nil))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var saved domain.Expense
	decodeBody(t, created, &saved)
	assert.Equal(t, caller.UserID, saved.ExecutiveID)
	assert.Equal(t, domain.ExpenseStatusSubmitted, saved.Status)
}

func TestExpenseHandler_UploadRejections(t *testing.T) {
	caller := testutil.Caller(domain.PermissionWrite)

	t.Run("missing file field", func(t *testing.T) {
		r := expenseRouter(t, caller, 1<<20)
		body, contentType := multipartReceipt(t, "attachment", "lunch.png", pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/api/expenses/receipts", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		r := expenseRouter(t, caller, 1<<20)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, newJSONRequest(t, http.MethodPost, "/api/expenses/receipts", `{}`, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unsupported type", func(t *testing.T) {
		r := expenseRouter(t, caller, 1<<20)
		body, contentType := multipartReceipt(t, "file", "notes.txt", "just some text")
		req := httptest.NewRequest(http.MethodPost, "/api/expenses/receipts", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		r := expenseRouter(t, caller, 8)
		body, contentType := multipartReceipt(t, "file", "lunch.png", pngHeader+strings.Repeat("0", 64))
		req := httptest.NewRequest(http.MethodPost, "/api/expenses/receipts", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("without caller", func(t *testing.T) {
		r := expenseRouter(t, nil, 1<<20)
		body, contentType := multipartReceipt(t, "file", "lunch.png", pngHeader)
		req := httptest.NewRequest(http.MethodPost, "/api/expenses/receipts", body)
		req.Header.Set("Content-Type", contentType)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestExpenseHandler_GetReceiptOutsideReceipts(t *testing.T) {
	r := expenseRouter(t, testutil.Caller(domain.PermissionRead), 1<<20)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses/receipts/other/file.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
