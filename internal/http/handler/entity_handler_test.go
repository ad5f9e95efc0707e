package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/http/handler"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memoryCRUD is an in-memory EntityCRUD. visible filters rows per caller the
// way row-level security would; hold parks List after it took its snapshot.
type memoryCRUD[T any, PT repository.RecordPtr[T]] struct {
	mu      sync.Mutex
	rows    []T
	visible func(caller *auth.UserContext, row PT) bool

	listed  chan struct{}
	release chan struct{}
}

func (m *memoryCRUD[T, PT]) hold() (listed, release chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = make(chan struct{})
	m.release = make(chan struct{})
	return m.listed, m.release
}

func (m *memoryCRUD[T, PT]) List(ctx context.Context) ([]T, error) {
	caller, _ := auth.FromContext(ctx)

	m.mu.Lock()
	out := []T{}
	for i := range m.rows {
		if m.visible == nil || m.visible(caller, PT(&m.rows[i])) {
			out = append(out, m.rows[i])
		}
	}
	listed, release := m.listed, m.release
	m.listed, m.release = nil, nil
	m.mu.Unlock()

	if listed != nil {
		close(listed)
		<-release
	}
	return out, nil
}

func (m *memoryCRUD[T, PT]) GetByID(_ context.Context, id string) (PT, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if PT(&m.rows[i]).Base().ID == id {
			row := m.rows[i]
			return PT(&row), nil
		}
	}
	return nil, service.ErrNotFound
}

func (m *memoryCRUD[T, PT]) Create(_ context.Context, row PT) (PT, error) {
	row.Base().ID = uuid.NewString()
	m.mu.Lock()
	m.rows = append(m.rows, *row)
	m.mu.Unlock()
	return row, nil
}

func (m *memoryCRUD[T, PT]) Update(_ context.Context, row PT) (PT, error) {
	return row, nil
}

func (m *memoryCRUD[T, PT]) Delete(_ context.Context, _ string) error {
	return nil
}

func listAs(t *testing.T, h http.HandlerFunc, caller *auth.UserContext) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h(rr, newJSONRequest(t, http.MethodGet, "/api/list", nil, caller))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return rr
}

func TestEntityHandler_CallerPartitionedList(t *testing.T) {
	alice := testutil.Caller(domain.PermissionWrite)
	bob := testutil.Caller(domain.PermissionWrite)

	svc := &memoryCRUD[domain.Expense, *domain.Expense]{
		rows: []domain.Expense{
			{BaseModel: domain.BaseModel{ID: "e-alice"}, ExecutiveID: alice.UserID},
			{BaseModel: domain.BaseModel{ID: "e-bob"}, ExecutiveID: bob.UserID},
		},
		visible: func(caller *auth.UserContext, row *domain.Expense) bool {
			return caller != nil && row.ExecutiveID == caller.UserID
		},
	}
	mem := cache.NewMemoryCache(30 * time.Second)
	h := handler.NewEntityHandler[domain.Expense]("expenses", "expense", svc, mem, testCacheControl, zap.NewNop()).
		PartitionByCaller()

	var rows []domain.Expense
	first := listAs(t, h.List, alice)
	decodeBody(t, first, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "e-alice", rows[0].ID)

	second := listAs(t, h.List, bob)
	assert.Equal(t, "MISS", second.Header().Get("X-Cache"))
	decodeBody(t, second, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "e-bob", rows[0].ID)

	assert.Equal(t, "private, s-maxage=30, stale-while-revalidate=60", second.Header().Get("Cache-Control"))
	assert.Equal(t, "Authorization", second.Header().Get("Vary"))

	again := listAs(t, h.List, alice)
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), again.Body.String())
	assert.Equal(t, 2, mem.Len())

	t.Run("a write drops every caller's entry", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.Delete(rr, newJSONRequest(t, http.MethodDelete, "/api/expenses?id=e-bob", nil, bob))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 0, mem.Len())
	})

	t.Run("no caller is never cached", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.List(rr, newJSONRequest(t, http.MethodGet, "/api/expenses", nil, nil))
		assert.Equal(t, 0, mem.Len())
	})
}

func TestEntityHandler_ListStartedBeforeWriteIsNotCached(t *testing.T) {
	caller := testutil.Caller(domain.PermissionWrite)
	svc := &memoryCRUD[domain.Client, *domain.Client]{}
	mem := cache.NewMemoryCache(30 * time.Second)
	h := handler.NewEntityHandler[domain.Client]("clients", "client", svc, mem, testCacheControl, zap.NewNop())

	listed, release := svc.hold()
	stale := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.List(stale, newJSONRequest(t, http.MethodGet, "/api/clients", nil, caller))
	}()
	<-listed

	created := httptest.NewRecorder()
	h.Create(created, newJSONRequest(t, http.MethodPost, "/api/clients", map[string]interface{}{
		"client": map[string]interface{}{"contact_name": "Jane Doe", "contact_email": "jane@x.com"},
	}, caller))
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	close(release)
	<-done
	assert.JSONEq(t, `[]`, stale.Body.String(), "the in-flight list answers with what it read")
	assert.Equal(t, 0, mem.Len(), "a list read before the write must not be stored")

	fresh := listAs(t, h.List, caller)
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))
	var rows []domain.Client
	decodeBody(t, fresh, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0].ContactName)
}
