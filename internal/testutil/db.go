// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/database"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with every table migrated.
// A single connection is used so the in-memory database is shared by all queries.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// Caller returns a user context with the given permission.
func Caller(permission domain.Permission) *auth.UserContext {
	return &auth.UserContext{
		UserID:     uuid.NewString(),
		Email:      "tester@example.com",
		FullName:   "Test User",
		Permission: permission,
	}
}

// CreateTestUser inserts an active user directly.
func CreateTestUser(t *testing.T, db *gorm.DB, fullName, email string, permission domain.Permission) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		BaseModel:  domain.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		FullName:   fullName,
		Email:      email,
		Permission: permission,
		Status:     domain.UserStatusActive,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestClient inserts a client with the given code, created at the given time.
func CreateTestClient(t *testing.T, db *gorm.DB, code, contactName string, createdAt time.Time) *domain.Client {
	t.Helper()
	client := &domain.Client{
		BaseModel:    domain.BaseModel{ID: uuid.NewString(), CreatedAt: createdAt, UpdatedAt: createdAt},
		ClientCode:   code,
		ContactName:  contactName,
		ContactEmail: "contact@example.com",
		CreatedBy:    uuid.NewString(),
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CreateTestVendor inserts a vendor with the given code.
func CreateTestVendor(t *testing.T, db *gorm.DB, code, companyName string, createdAt time.Time) *domain.Vendor {
	t.Helper()
	vendor := &domain.Vendor{
		BaseModel:   domain.BaseModel{ID: uuid.NewString(), CreatedAt: createdAt, UpdatedAt: createdAt},
		VendorCode:  code,
		CompanyName: companyName,
		Status:      domain.VendorStatusActive,
	}
	require.NoError(t, db.Create(vendor).Error)
	return vendor
}
