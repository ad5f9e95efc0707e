package datawarehouse_test

import (
	"context"
	"testing"

	"github.com/ledgerline/crm-api/internal/config"
	"github.com/ledgerline/crm-api/internal/datawarehouse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupWarehouse(t *testing.T) *datawarehouse.Client {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	db, err := gdb.DB()
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE erp_vendors (
		erp_id TEXT, company_name TEXT, gst_number TEXT, contact_email TEXT,
		contact_phone TEXT, address TEXT, payment_terms TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO erp_vendors VALUES
		('E2', 'Zeta Metals', '27AAACZ1234F1Z5', 'sales@zeta.test', NULL, 'Pune', 'Net 30'),
		('E1', 'Acme Supplies', NULL, NULL, '', NULL, NULL)`)
	require.NoError(t, err)

	client, err := datawarehouse.NewClientFromDB(db, &config.DataWarehouseConfig{VendorTable: "erp_vendors"}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestClient_GetERPVendors(t *testing.T) {
	client := setupWarehouse(t)

	vendors, err := client.GetERPVendors(context.Background())
	require.NoError(t, err)
	require.Len(t, vendors, 2)

	assert.Equal(t, "Acme Supplies", vendors[0].CompanyName)
	assert.Nil(t, vendors[0].GSTNumber)
	assert.Nil(t, vendors[0].ContactPhone, "blank strings are treated as missing")

	assert.Equal(t, "E2", vendors[1].ERPID)
	require.NotNil(t, vendors[1].GSTNumber)
	assert.Equal(t, "27AAACZ1234F1Z5", *vendors[1].GSTNumber)
	assert.Equal(t, "Net 30", *vendors[1].PaymentTerms)
}

func TestClient_HealthCheck(t *testing.T) {
	client := setupWarehouse(t)

	status := client.HealthCheck(context.Background())
	assert.Equal(t, "healthy", status.Status)

	var disabled *datawarehouse.Client
	assert.False(t, disabled.IsEnabled())
	assert.Equal(t, "disabled", disabled.HealthCheck(context.Background()).Status)
	assert.NoError(t, disabled.Close())
}

func TestNewClient_Disabled(t *testing.T) {
	client, err := datawarehouse.NewClient(&config.DataWarehouseConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = datawarehouse.NewClient(&config.DataWarehouseConfig{Enabled: true, URL: "dw:1433/erp"}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, client, "missing credentials skip the connection")
}

func TestNewClientFromDB_RejectsUnsafeTable(t *testing.T) {
	_, err := datawarehouse.NewClientFromDB(nil, &config.DataWarehouseConfig{VendorTable: "vendors; DROP TABLE x"}, zap.NewNop())
	assert.Error(t, err)
}

func TestERPVendor_ToVendor(t *testing.T) {
	client := setupWarehouse(t)
	vendors, err := client.GetERPVendors(context.Background())
	require.NoError(t, err)

	v := vendors[1].ToVendor()
	assert.Equal(t, "Zeta Metals", v.CompanyName)
	assert.Equal(t, "active", string(v.Status))
	assert.Empty(t, v.VendorCode)
}
