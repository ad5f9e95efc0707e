// Package datawarehouse provides read-only connectivity to the MS SQL Server
// ERP data warehouse, used to offer ERP suppliers for import as vendors.
package datawarehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/domain"
	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Client provides read-only access to the ERP data warehouse
type Client struct {
	db           *sql.DB
	vendorTable  string
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the data warehouse connection
type HealthStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	MaxOpen   int    `json:"max_open_connections"`
	Open      int    `json:"open_connections"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
}

// NewClient connects to the warehouse with retry and backoff.
// It returns nil, nil when the warehouse is disabled or lacks credentials.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("data warehouse connection disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("data warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	connStr := buildConnectionString(cfg)

	var (
		db  *sql.DB
		err error
	)
	backoff := defaultInitialBackoff
	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err = openAndPing(connStr, cfg)
		if err == nil {
			logger.Info("data warehouse connection established", zap.Int("attempts_taken", attempt))
			return NewClientFromDB(db, cfg, logger)
		}

		logger.Warn("data warehouse connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", defaultMaxRetries),
		)
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", defaultMaxRetries, err)
}

func openAndPing(connStr string, cfg *config.DataWarehouseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewClientFromDB wraps an open connection
func NewClientFromDB(db *sql.DB, cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	table := cfg.VendorTable
	if table == "" {
		table = "dbo.erp_vendors"
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid vendor table name %q", table)
	}
	timeout := cfg.QueryTimeoutDuration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{db: db, vendorTable: table, logger: logger, queryTimeout: timeout}, nil
}

// buildConnectionString turns host:port/database into a sqlserver URL
func buildConnectionString(cfg *config.DataWarehouseConfig) string {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	query.Add("app name", "crm-api")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Close closes the connection pool
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	c.logger.Info("data warehouse connection closed")
	return nil
}

// HealthCheck pings the warehouse and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()
	status := &HealthStatus{
		Status:    "healthy",
		LatencyMs: time.Since(start).Milliseconds(),
		MaxOpen:   stats.MaxOpenConnections,
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
	}
	if err != nil {
		c.logger.Warn("data warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

// Ping reports whether the warehouse answers, for readiness checks
func (c *Client) Ping(ctx context.Context) error {
	status := c.HealthCheck(ctx)
	if status.Status == "unhealthy" {
		return fmt.Errorf("data warehouse unhealthy: %s", status.Error)
	}
	return nil
}

// GetERPVendors reads every supplier from the ERP vendor table
func (c *Client) GetERPVendors(ctx context.Context) ([]domain.ERPVendor, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("data warehouse client not initialized")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	query := "SELECT erp_id, company_name, gst_number, contact_email, contact_phone, address, payment_terms FROM " +
		c.vendorTable + " ORDER BY company_name"

	start := time.Now()
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	vendors := make([]domain.ERPVendor, 0)
	for rows.Next() {
		var (
			v                                        domain.ERPVendor
			gst, email, phone, address, paymentTerms sql.NullString
		)
		if err := rows.Scan(&v.ERPID, &v.CompanyName, &gst, &email, &phone, &address, &paymentTerms); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		v.GSTNumber = nullString(gst)
		v.ContactEmail = nullString(email)
		v.ContactPhone = nullString(phone)
		v.Address = nullString(address)
		v.PaymentTerms = nullString(paymentTerms)
		vendors = append(vendors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	c.logger.Debug("ERP vendors loaded",
		zap.Int("rows_returned", len(vendors)),
		zap.Duration("duration", time.Since(start)),
	)
	return vendors, nil
}

// IsEnabled returns true if the client is initialized and ready for queries
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	v := s.String
	return &v
}
