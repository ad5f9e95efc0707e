package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/http/handler"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testCacheControl = "public, s-maxage=30, stale-while-revalidate=60"

func createClientHandler(db *gorm.DB) (*handler.ClientHandler, *cache.MemoryCache) {
	logger := zap.NewNop()
	codes := service.NewCodeGenerator(repository.NewCodeSequenceRepository(db), service.CodeStrategySequence, logger)
	svc := service.NewClientService(repository.NewClientRepository(db), codes, logger)
	mem := cache.NewMemoryCache(30 * time.Second)
	return handler.NewClientHandler(svc, mem, testCacheControl, logger), mem
}

func TestClientHandler_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := createClientHandler(db)
	caller := testutil.Caller(domain.PermissionWrite)

	t.Run("assigns code and creator", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{
				"contact_name":  "Jane Doe",
				"contact_email": "jane@x.com",
			},
		}
		rr := httptest.NewRecorder()
		h.Create(rr, newJSONRequest(t, http.MethodPost, "/api/clients", body, caller))

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var created domain.Client
		decodeBody(t, rr, &created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "C001", created.ClientCode)
		assert.Equal(t, caller.UserID, created.CreatedBy)
		assert.False(t, created.CreatedAt.IsZero())
	})

	t.Run("missing payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Create(rr, newJSONRequest(t, http.MethodPost, "/api/clients", `{"lead":{}}`, caller))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var apiErr domain.APIError
		decodeBody(t, rr, &apiErr)
		assert.Equal(t, "missing client payload", apiErr.Error)
	})

	t.Run("empty body", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Create(rr, newJSONRequest(t, http.MethodPost, "/api/clients", nil, caller))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation errors are listed per field", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{
				"contact_name":  "Jane Doe",
				"contact_email": "not-an-email",
			},
		}
		rr := httptest.NewRecorder()
		h.Create(rr, newJSONRequest(t, http.MethodPost, "/api/clients", body, caller))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		var apiErr domain.APIError
		decodeBody(t, rr, &apiErr)
		assert.Equal(t, domain.ErrorTypeValidation, apiErr.Type)
		assert.Contains(t, apiErr.Errors, "contact_email")
	})

	t.Run("requires a caller", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{"contact_name": "A", "contact_email": "a@x.com"},
		}
		rr := httptest.NewRecorder()
		h.Create(rr, newJSONRequest(t, http.MethodPost, "/api/clients", body, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestClientHandler_ListIsCachedUntilWrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := createClientHandler(db)
	caller := testutil.Caller(domain.PermissionWrite)
	testutil.CreateTestClient(t, db, "C007", "Existing", time.Now().Add(-time.Hour))

	first := httptest.NewRecorder()
	h.List(first, newJSONRequest(t, http.MethodGet, "/api/clients", nil, nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, testCacheControl, first.Header().Get("Cache-Control"))

	second := httptest.NewRecorder()
	h.List(second, newJSONRequest(t, http.MethodGet, "/api/clients", nil, nil))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, testCacheControl, second.Header().Get("Cache-Control"))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes(), "cached lists must be byte-identical")

	// A row written behind the handler's back is not visible until the cache expires
	testutil.CreateTestClient(t, db, "C100", "Direct insert", time.Now())
	stale := httptest.NewRecorder()
	h.List(stale, newJSONRequest(t, http.MethodGet, "/api/clients", nil, nil))
	assert.Equal(t, first.Body.Bytes(), stale.Body.Bytes())

	body := map[string]interface{}{
		"client": map[string]interface{}{"contact_name": "Jane Doe", "contact_email": "jane@x.com"},
	}
	created := httptest.NewRecorder()
	h.Create(created, newJSONRequest(t, http.MethodPost, "/api/clients", body, caller))
	require.Equal(t, http.StatusCreated, created.Code)

	fresh := httptest.NewRecorder()
	h.List(fresh, newJSONRequest(t, http.MethodGet, "/api/clients", nil, nil))
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))

	var rows []domain.Client
	decodeBody(t, fresh, &rows)
	require.Len(t, rows, 3)
	assert.Equal(t, "C101", rows[0].ClientCode, "newest first")
	assert.Equal(t, "Jane Doe", rows[0].ContactName)
}

func TestClientHandler_EmptyListIsAnArray(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, mem := createClientHandler(db)

	rr := httptest.NewRecorder()
	h.List(rr, newJSONRequest(t, http.MethodGet, "/api/clients", nil, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
	assert.Equal(t, 1, mem.Len(), "the empty result is cached too")
}

func TestClientHandler_UpdateAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, mem := createClientHandler(db)
	caller := testutil.Caller(domain.PermissionFullAccess)
	existing := testutil.CreateTestClient(t, db, "C004", "Before", time.Now().Add(-time.Hour))

	t.Run("update keeps code and creation fields", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{
				"id":            existing.ID,
				"client_code":   "C999",
				"created_by":    caller.UserID,
				"contact_name":  "After",
				"contact_email": "after@x.com",
			},
		}
		rr := httptest.NewRecorder()
		h.Update(rr, newJSONRequest(t, http.MethodPut, "/api/clients", body, caller))

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var updated domain.Client
		decodeBody(t, rr, &updated)
		assert.Equal(t, "C004", updated.ClientCode)
		assert.Equal(t, existing.CreatedBy, updated.CreatedBy)
		assert.Equal(t, "After", updated.ContactName)
		assert.True(t, updated.UpdatedAt.After(existing.UpdatedAt))
	})

	t.Run("update takes the id from the path", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{"contact_name": "Path", "contact_email": "p@x.com"},
		}
		req := withURLParam(newJSONRequest(t, http.MethodPut, "/api/clients/"+existing.ID, body, caller), "id", existing.ID)
		rr := httptest.NewRecorder()
		h.Update(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	})

	t.Run("update without id", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{"contact_name": "X", "contact_email": "x@x.com"},
		}
		rr := httptest.NewRecorder()
		h.Update(rr, newJSONRequest(t, http.MethodPut, "/api/clients", body, caller))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("update unknown id", func(t *testing.T) {
		body := map[string]interface{}{
			"client": map[string]interface{}{
				"id": "7d1f4c64-0000-4000-8000-000000000000", "contact_name": "X", "contact_email": "x@x.com",
			},
		}
		rr := httptest.NewRecorder()
		h.Update(rr, newJSONRequest(t, http.MethodPut, "/api/clients", body, caller))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete without id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Delete(rr, newJSONRequest(t, http.MethodDelete, "/api/clients", nil, caller))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("delete invalidates the list", func(t *testing.T) {
		list := httptest.NewRecorder()
		h.List(list, newJSONRequest(t, http.MethodGet, "/api/clients", nil, nil))
		require.Equal(t, 1, mem.Len())

		rr := httptest.NewRecorder()
		h.Delete(rr, newJSONRequest(t, http.MethodDelete, "/api/clients?id="+existing.ID, nil, caller))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true}`, rr.Body.String())
		assert.Equal(t, 0, mem.Len())
	})
}

func TestClientHandler_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h, _ := createClientHandler(db)
	existing := testutil.CreateTestClient(t, db, "C001", "Jane", time.Now())

	rr := httptest.NewRecorder()
	h.GetByID(rr, withURLParam(newJSONRequest(t, http.MethodGet, "/api/clients/"+existing.ID, nil, nil), "id", existing.ID))
	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.Client
	decodeBody(t, rr, &got)
	assert.Equal(t, "C001", got.ClientCode)

	missing := httptest.NewRecorder()
	h.GetByID(missing, withURLParam(newJSONRequest(t, http.MethodGet, "/api/clients/x", nil, nil), "id", "2b0d7b3a-0000-4000-8000-000000000000"))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}
