package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/ledgerline/crm-api/internal/client"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string { return &s }

// crmServer serves users and leads, echoing lead updates
type crmServer struct {
	mu        sync.Mutex
	users     []domain.User
	leads     []domain.Lead
	failUsers bool
	order     []string
	auth      string
}

func (s *crmServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, r.Method+" "+r.URL.Path)
	s.auth = r.Header.Get("Authorization")

	switch {
	case r.URL.Path == "/api/users" && r.Method == http.MethodGet:
		if s.failUsers {
			writeJSON(w, http.StatusForbidden, domain.APIError{Error: "forbidden", Status: 403})
			return
		}
		writeJSON(w, http.StatusOK, s.users)
	case r.URL.Path == "/api/leads" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, s.leads)
	case r.URL.Path == "/api/leads" && r.Method == http.MethodPut:
		var body struct {
			Lead domain.Lead `json:"lead"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, body.Lead)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *crmServer) requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

func newCRMServer() *crmServer {
	return &crmServer{
		users: []domain.User{
			{BaseModel: domain.BaseModel{ID: "u-1"}, FullName: "Asha Rao"},
			{BaseModel: domain.BaseModel{ID: "u-2"}, FullName: "Ravi Kumar"},
		},
		leads: []domain.Lead{
			{BaseModel: domain.BaseModel{ID: "l-1"}, ContactName: "Jane", AssignedTo: strPtr("u-1")},
			{BaseModel: domain.BaseModel{ID: "l-2"}, ContactName: "John"},
			{BaseModel: domain.BaseModel{ID: "l-3"}, ContactName: "Jim", AssignedTo: strPtr("u-unknown")},
		},
	}
}

func TestAppState_LoadLeadsAwaitsUsers(t *testing.T) {
	srv := newCRMServer()
	api := newAPI(t, srv)
	api.SetToken("tok")
	state := client.NewAppState(api, &recordingNotifier{}, zap.NewNop())

	require.NoError(t, state.LoadLeads(context.Background(), false))

	assert.Equal(t, []string{"GET /api/users", "GET /api/leads"}, srv.requests())
	assert.Equal(t, "Bearer tok", srv.auth)

	leads := state.Leads.Items()
	require.Len(t, leads, 3)
	require.NotNil(t, leads[0].AssignedToName)
	assert.Equal(t, "Asha Rao", *leads[0].AssignedToName)
	assert.Nil(t, leads[1].AssignedToName, "unassigned")
	assert.Nil(t, leads[2].AssignedToName, "unknown user")
}

func TestAppState_UpdateLeadResolvesNewAssignee(t *testing.T) {
	srv := newCRMServer()
	state := client.NewAppState(newAPI(t, srv), &recordingNotifier{}, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, state.LoadLeads(ctx, false))

	lead := state.Leads.Items()[0]
	lead.AssignedTo = strPtr("u-2")
	_, err := state.Leads.Update(ctx, &lead)
	require.NoError(t, err)

	got := state.Leads.Items()[0]
	require.NotNil(t, got.AssignedToName)
	assert.Equal(t, "Ravi Kumar", *got.AssignedToName)
}

func TestAppState_UsersUnavailable(t *testing.T) {
	srv := newCRMServer()
	srv.failUsers = true
	state := client.NewAppState(newAPI(t, srv), &recordingNotifier{}, zap.NewNop())

	require.NoError(t, state.LoadLeads(context.Background(), false), "leads still load")
	for _, l := range state.Leads.Items() {
		assert.Nil(t, l.AssignedToName)
	}

	// once users become available the held leads are re-resolved
	srv.mu.Lock()
	srv.failUsers = false
	srv.mu.Unlock()
	require.NoError(t, state.LoadUsers(context.Background(), true))
	require.NotNil(t, state.Leads.Items()[0].AssignedToName)
	assert.Equal(t, "Asha Rao", *state.Leads.Items()[0].AssignedToName)
}

func TestAppState_UserName(t *testing.T) {
	state := client.NewAppState(client.NewAPIClient("http://unused", nil, zap.NewNop()), &recordingNotifier{}, zap.NewNop())
	assert.Nil(t, state.UserName(nil))
	assert.Nil(t, state.UserName(strPtr("u-1")), "user store not loaded")
}

func TestDialogState(t *testing.T) {
	d := client.NewDialogState()
	assert.False(t, d.IsOpen(client.EntityClient))

	d.Open(client.EntityClient, nil)
	assert.True(t, d.IsOpen(client.EntityClient))
	assert.Nil(t, d.Current(client.EntityClient), "adding has no current row")

	row := &domain.Client{ContactName: "Jane"}
	d.Open(client.EntityClient, row)
	assert.Same(t, row, d.Current(client.EntityClient))
	assert.False(t, d.IsOpen(client.EntityVendor))

	d.Close(client.EntityClient)
	assert.False(t, d.IsOpen(client.EntityClient))
	assert.Nil(t, d.Current(client.EntityClient))
}

func TestAPIClient_SessionCalls(t *testing.T) {
	var gotAuth, gotKey string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		var req domain.SignInRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "Str0ngPass" {
			writeJSON(w, http.StatusUnauthorized, domain.APIError{Error: "invalid email or password", Status: 401})
			return
		}
		writeJSON(w, http.StatusOK, domain.SignInResponse{Token: "tok-1", User: &domain.User{Email: req.Email}})
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("x-api-key")
		writeJSON(w, http.StatusOK, domain.CurrentUserResponse{Email: "asha@example.com"})
	})
	mux.HandleFunc("/api/auth/signout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Success: true})
	})
	api := newAPI(t, mux)
	ctx := context.Background()

	_, err := api.SignIn(ctx, "asha@example.com", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Empty(t, api.Token())

	resp, err := api.SignIn(ctx, "asha@example.com", "Str0ngPass")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "tok-1", api.Token())

	me, err := api.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", me.Email)
	assert.Equal(t, "Bearer tok-1", gotAuth)

	require.NoError(t, api.SignOut(ctx))
	assert.Empty(t, api.Token())

	api.SetAPIKey("key")
	_, err = api.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "key", gotKey)
	assert.Empty(t, gotAuth)
}
