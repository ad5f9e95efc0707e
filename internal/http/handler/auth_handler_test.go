package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/http/handler"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testAPIKey = "test-api-key"

// authRouter wires sign-in, the session endpoints and /users behind the real auth middleware
func authRouter(t *testing.T) chi.Router {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	users := repository.NewUserRepository(db)
	tokens := auth.NewTokenManager("test-secret", "crm-test", time.Hour)
	authHandler := handler.NewAuthHandler(service.NewAuthService(users, tokens, logger), logger)
	userHandler := handler.NewUserHandler(service.NewUserService(users, bcrypt.MinCost, logger), nil, "", logger)
	mw := auth.NewMiddleware(&config.AuthConfig{APIKey: testAPIKey, SystemEmail: "system@example.com"}, tokens, logger)

	r := chi.NewRouter()
	r.Post("/api/auth/signin", authHandler.SignIn)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Post("/api/auth/signout", authHandler.SignOut)
		r.Get("/api/auth/me", authHandler.Me)
		r.Post("/api/users", userHandler.Create)
		r.Get("/api/users", userHandler.List)
	})
	return r
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func createUserWithAPIKey(t *testing.T, r http.Handler, email, password string, permission domain.Permission) *httptest.ResponseRecorder {
	t.Helper()
	body := map[string]interface{}{
		"user": map[string]interface{}{
			"full_name":  "Asha Rao",
			"email":      email,
			"permission": permission,
			"password":   password,
		},
	}
	req := newJSONRequest(t, http.MethodPost, "/api/users", body, nil)
	req.Header.Set("x-api-key", testAPIKey)
	return serve(r, req)
}

func TestAuthHandler_SessionLifecycle(t *testing.T) {
	r := authRouter(t)

	created := createUserWithAPIKey(t, r, "asha@example.com", "Str0ngPass", domain.PermissionAdmin)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.NotContains(t, created.Body.String(), "password")

	signIn := serve(r, newJSONRequest(t, http.MethodPost, "/api/auth/signin",
		map[string]string{"email": "asha@example.com", "password": "Str0ngPass"}, nil))
	require.Equal(t, http.StatusOK, signIn.Code, signIn.Body.String())
	var session domain.SignInResponse
	decodeBody(t, signIn, &session)
	require.NotEmpty(t, session.Token)
	assert.Equal(t, domain.PermissionAdmin, session.User.Permission)
	assert.NotContains(t, signIn.Body.String(), "password")

	bearer := func(req *http.Request) *http.Request {
		req.Header.Set("Authorization", "Bearer "+session.Token)
		return req
	}

	me := serve(r, bearer(newJSONRequest(t, http.MethodGet, "/api/auth/me", nil, nil)))
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	var current domain.CurrentUserResponse
	decodeBody(t, me, &current)
	assert.Equal(t, "asha@example.com", current.Email)
	assert.False(t, current.System)

	out := serve(r, bearer(newJSONRequest(t, http.MethodPost, "/api/auth/signout", nil, nil)))
	require.Equal(t, http.StatusOK, out.Code)
	assert.JSONEq(t, `{"success":true}`, out.Body.String())

	after := serve(r, bearer(newJSONRequest(t, http.MethodGet, "/api/auth/me", nil, nil)))
	assert.Equal(t, http.StatusUnauthorized, after.Code, "revoked tokens are rejected")
}

func TestAuthHandler_SignInFailures(t *testing.T) {
	r := authRouter(t)
	require.Equal(t, http.StatusCreated, createUserWithAPIKey(t, r, "ravi@example.com", "Str0ngPass", domain.PermissionRead).Code)

	tests := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"wrong password", map[string]string{"email": "ravi@example.com", "password": "nope"}, http.StatusUnauthorized},
		{"unknown email", map[string]string{"email": "nobody@example.com", "password": "Str0ngPass"}, http.StatusUnauthorized},
		{"missing password", map[string]string{"email": "ravi@example.com"}, http.StatusBadRequest},
		{"malformed json", `{"email":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(r, newJSONRequest(t, http.MethodPost, "/api/auth/signin", tt.body, nil))
			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
		})
	}
}

func TestAuthHandler_RequiresCredentials(t *testing.T) {
	r := authRouter(t)

	rr := serve(r, newJSONRequest(t, http.MethodGet, "/api/auth/me", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	bad := newJSONRequest(t, http.MethodGet, "/api/auth/me", nil, nil)
	bad.Header.Set("x-api-key", "wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(r, bad).Code)

	system := newJSONRequest(t, http.MethodGet, "/api/auth/me", nil, nil)
	system.Header.Set("x-api-key", testAPIKey)
	rr = serve(r, system)
	require.Equal(t, http.StatusOK, rr.Code)
	var current domain.CurrentUserResponse
	decodeBody(t, rr, &current)
	assert.True(t, current.System)
}

func TestUserHandler_WeakPasswordAndDuplicates(t *testing.T) {
	r := authRouter(t)

	weak := createUserWithAPIKey(t, r, "weak@example.com", "short", domain.PermissionRead)
	assert.Equal(t, http.StatusBadRequest, weak.Code)

	require.Equal(t, http.StatusCreated, createUserWithAPIKey(t, r, "dup@example.com", "Str0ngPass", domain.PermissionRead).Code)
	dup := createUserWithAPIKey(t, r, "DUP@example.com", "Str0ngPass", domain.PermissionRead)
	assert.Equal(t, http.StatusConflict, dup.Code)
}
