// Package client is the Go client of the CRM API: an HTTP client plus
// in-memory entity stores that mirror the server collections.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ledgerline/crm-api/internal/domain"
	"go.uber.org/zap"
)

// APIError is a non-2xx response from the API
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Resource names a collection endpoint and the key its write payloads are wrapped in
type Resource struct {
	Name       string
	Path       string
	PayloadKey string
}

var (
	ClientsResource      = Resource{Name: "client", Path: "/api/clients", PayloadKey: "client"}
	LeadsResource        = Resource{Name: "lead", Path: "/api/leads", PayloadKey: "lead"}
	VendorsResource      = Resource{Name: "vendor", Path: "/api/vendors", PayloadKey: "vendor"}
	RequirementsResource = Resource{Name: "requirement", Path: "/api/requirements", PayloadKey: "requirement"}
	QuotesResource       = Resource{Name: "quote", Path: "/api/quotes", PayloadKey: "quote"}
	SalesOrdersResource  = Resource{Name: "sales order", Path: "/api/sales-orders", PayloadKey: "sales_order"}
	ExpensesResource     = Resource{Name: "expense", Path: "/api/expenses", PayloadKey: "expense"}
	UsersResource        = Resource{Name: "user", Path: "/api/users", PayloadKey: "user"}
)

// CacheBustParam is appended to forced list requests to get past HTTP caches
const CacheBustParam = "_t"

// APIClient talks JSON to the CRM API with a bearer token or an API key
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu     sync.RWMutex
	token  string
	apiKey string
}

// NewAPIClient creates a client for baseURL. A nil httpClient uses a 30s timeout client.
func NewAPIClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for cache-busting values
func (c *APIClient) WithClock(now func() time.Time) *APIClient {
	c.now = now
	return c
}

// SetToken sets the bearer token sent with every request
func (c *APIClient) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// Token returns the current bearer token
func (c *APIClient) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetAPIKey authenticates as the system caller instead of a user
func (c *APIClient) SetAPIKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.apiKey = key
}

// Do sends body as JSON and decodes the response into out (when non-nil)
func (c *APIClient) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	} else if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.String("cache", resp.Header.Get("X-Cache")),
		zap.Duration("duration", time.Since(start)),
	)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status}
	var body domain.APIError
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Fields = body.Errors
		return apiErr
	}
	apiErr.Message = http.StatusText(status)
	return apiErr
}

// List fetches a collection into out. force adds a cache-busting parameter.
func (c *APIClient) List(ctx context.Context, res Resource, force bool, out interface{}) error {
	var query url.Values
	if force {
		query = url.Values{CacheBustParam: {strconv.FormatInt(c.now().UnixMilli(), 10)}}
	}
	return c.Do(ctx, http.MethodGet, res.Path, query, nil, out)
}

// Create posts row wrapped in the resource payload key
func (c *APIClient) Create(ctx context.Context, res Resource, row, out interface{}) error {
	return c.Do(ctx, http.MethodPost, res.Path, nil, map[string]interface{}{res.PayloadKey: row}, out)
}

// Update puts row (which must carry its id) wrapped in the resource payload key
func (c *APIClient) Update(ctx context.Context, res Resource, row, out interface{}) error {
	return c.Do(ctx, http.MethodPut, res.Path, nil, map[string]interface{}{res.PayloadKey: row}, out)
}

// Delete removes the row with id
func (c *APIClient) Delete(ctx context.Context, res Resource, id string) error {
	return c.Do(ctx, http.MethodDelete, res.Path, url.Values{"id": {id}}, nil, nil)
}

// SignIn exchanges credentials for a session token and keeps the token
func (c *APIClient) SignIn(ctx context.Context, email, password string) (*domain.SignInResponse, error) {
	var resp domain.SignInResponse
	req := domain.SignInRequest{Email: email, Password: password}
	if err := c.Do(ctx, http.MethodPost, "/api/auth/signin", nil, req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp, nil
}

// SignOut revokes the session token and forgets it locally
func (c *APIClient) SignOut(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/auth/signout", nil, nil, nil)
	c.SetToken("")
	return err
}

// Me returns the caller behind the current credentials
func (c *APIClient) Me(ctx context.Context) (*domain.CurrentUserResponse, error) {
	var me domain.CurrentUserResponse
	if err := c.Do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
