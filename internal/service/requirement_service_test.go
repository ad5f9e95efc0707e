package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRequirementService_Items(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := service.NewRequirementService(repository.NewRequirementRepository(db), zap.NewNop())
	ctx := callerContext(testutil.Caller(domain.PermissionWrite))

	req, err := svc.Create(ctx, &domain.Requirement{
		ClientID: uuid.NewString(),
		Title:    "Office chairs",
		Items: []domain.RequirementItem{
			{ItemName: "Chair", Quantity: dec("40")},
			{ItemName: "Armrest", Quantity: dec("80")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RequirementStatusNew, req.Status)

	loaded, err := svc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	for _, item := range loaded.Items {
		assert.Equal(t, req.ID, item.RequirementID)
		assert.NotEmpty(t, item.ID)
	}

	t.Run("update without items keeps them", func(t *testing.T) {
		payload := *loaded
		payload.Items = nil
		payload.Title = "Ergonomic office chairs"

		updated, err := svc.Update(ctx, &payload)
		require.NoError(t, err)
		assert.Equal(t, "Ergonomic office chairs", updated.Title)
		assert.Len(t, updated.Items, 2)
	})

	t.Run("update with items replaces them", func(t *testing.T) {
		payload := *loaded
		payload.Items = []domain.RequirementItem{{ItemName: "Desk", Quantity: dec("10")}}

		updated, err := svc.Update(ctx, &payload)
		require.NoError(t, err)
		require.Len(t, updated.Items, 1)
		assert.Equal(t, "Desk", updated.Items[0].ItemName)
	})

	t.Run("empty items list clears them", func(t *testing.T) {
		payload := *loaded
		payload.Items = []domain.RequirementItem{}

		updated, err := svc.Update(ctx, &payload)
		require.NoError(t, err)
		assert.Empty(t, updated.Items)
	})

	t.Run("non-positive quantity is rejected", func(t *testing.T) {
		_, err := svc.Create(ctx, &domain.Requirement{
			ClientID: uuid.NewString(),
			Title:    "Broken",
			Items:    []domain.RequirementItem{{ItemName: "Nothing", Quantity: dec("0")}},
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}
