package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func createClientService(db *gorm.DB) *service.ClientService {
	codes := service.NewCodeGenerator(nil, service.CodeStrategyLatest, zap.NewNop())
	return service.NewClientService(repository.NewClientRepository(db), codes, zap.NewNop())
}

func callerContext(caller *auth.UserContext) context.Context {
	return auth.WithUserContext(context.Background(), caller)
}

// staleClientStore reports an outdated latest code for the first calls,
// as a concurrent writer would cause.
type staleClientStore struct {
	*repository.ClientRepository
	stale []string
}

func (s *staleClientStore) LatestCode(ctx context.Context, column string) (string, error) {
	if len(s.stale) > 0 {
		code := s.stale[0]
		s.stale = s.stale[1:]
		return code, nil
	}
	return s.ClientRepository.LatestCode(ctx, column)
}

func TestClientService_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	caller := testutil.Caller(domain.PermissionWrite)
	ctx := callerContext(caller)

	t.Run("first client gets C001", func(t *testing.T) {
		client, err := svc.Create(ctx, &domain.Client{ContactName: "First", ContactEmail: "first@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "C001", client.ClientCode)
	})

	t.Run("next code follows the latest client", func(t *testing.T) {
		testutil.CreateTestClient(t, db, "C007", "Previous", time.Now().UTC().Add(time.Minute))

		client, err := svc.Create(ctx, &domain.Client{ContactName: " Jane Doe ", ContactEmail: "Jane@Example.com"})
		require.NoError(t, err)

		assert.Equal(t, "C008", client.ClientCode)
		assert.Equal(t, "Jane Doe", client.ContactName)
		assert.Equal(t, "jane@example.com", client.ContactEmail)
		assert.Equal(t, caller.UserID, client.CreatedBy)
		assert.NotEmpty(t, client.ID)
		assert.False(t, client.CreatedAt.IsZero())
		assert.Equal(t, client.CreatedAt, client.UpdatedAt)
	})

	t.Run("payload id and created_at are kept", func(t *testing.T) {
		id := uuid.NewString()
		createdAt := time.Date(2023, 4, 1, 9, 30, 0, 0, time.UTC)

		client, err := svc.Create(ctx, &domain.Client{
			BaseModel:    domain.BaseModel{ID: id, CreatedAt: createdAt},
			ContactName:  "Backfilled",
			ContactEmail: "old@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, id, client.ID)
		assert.True(t, createdAt.Equal(client.CreatedAt))
	})

	t.Run("create without caller fails", func(t *testing.T) {
		_, err := svc.Create(context.Background(), &domain.Client{ContactName: "Nobody", ContactEmail: "n@example.com"})
		assert.ErrorIs(t, err, service.ErrUnauthorized)
	})
}

func TestClientService_CreateRetriesTakenCode(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := callerContext(testutil.Caller(domain.PermissionWrite))
	testutil.CreateTestClient(t, db, "C004", "Taken", time.Now().UTC())

	t.Run("succeeds once the latest code is fresh", func(t *testing.T) {
		store := &staleClientStore{ClientRepository: repository.NewClientRepository(db), stale: []string{"C003"}}
		svc := service.NewEntityService[domain.Client]("client", store, service.EntityServiceConfig[*domain.Client]{
			Codes:    service.NewCodeGenerator(nil, service.CodeStrategyLatest, zap.NewNop()),
			CodeSpec: &service.ClientCodes,
		}, zap.NewNop())

		client, err := svc.Create(ctx, &domain.Client{ContactName: "Retry", ContactEmail: "retry@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "C005", client.ClientCode)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		store := &staleClientStore{
			ClientRepository: repository.NewClientRepository(db),
			stale:            []string{"C003", "C003"},
		}
		svc := service.NewEntityService[domain.Client]("client", store, service.EntityServiceConfig[*domain.Client]{
			Codes:       service.NewCodeGenerator(nil, service.CodeStrategyLatest, zap.NewNop()),
			CodeSpec:    &service.ClientCodes,
			MaxAttempts: 2,
		}, zap.NewNop())

		client := &domain.Client{ContactName: "Unlucky", ContactEmail: "unlucky@example.com"}
		_, err := svc.Create(ctx, client)
		assert.ErrorIs(t, err, service.ErrConflict)
		assert.Empty(t, client.ClientCode)
	})
}

func TestClientService_UpdateKeepsImmutableFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	edited := created.Add(72 * time.Hour)

	clock := created
	svc := createClientService(db).WithClock(func() time.Time { return clock })

	owner := testutil.Caller(domain.PermissionWrite)
	client, err := svc.Create(callerContext(owner), &domain.Client{ContactName: "Acme", ContactEmail: "acme@example.com"})
	require.NoError(t, err)

	clock = edited
	editor := testutil.Caller(domain.PermissionFullAccess)
	payload := *client
	payload.ClientCode = "C999"
	payload.CreatedBy = editor.UserID
	payload.CreatedAt = edited
	payload.ContactName = "Acme Ltd"

	updated, err := svc.Update(callerContext(editor), &payload)
	require.NoError(t, err)

	assert.Equal(t, client.ClientCode, updated.ClientCode)
	assert.Equal(t, owner.UserID, updated.CreatedBy)
	assert.True(t, created.Equal(updated.CreatedAt))
	assert.True(t, edited.Equal(updated.UpdatedAt))
	assert.Equal(t, "Acme Ltd", updated.ContactName)
}

func TestClientService_UpdateAndDeleteMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	ctx := callerContext(testutil.Caller(domain.PermissionFullAccess))

	_, err := svc.Update(ctx, &domain.Client{BaseModel: domain.BaseModel{ID: uuid.NewString()}, ContactName: "x", ContactEmail: "x@example.com"})
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = svc.Delete(ctx, uuid.NewString())
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.Update(ctx, &domain.Client{ContactName: "x"})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestClientService_ListNewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := createClientService(db)
	now := time.Now().UTC()

	testutil.CreateTestClient(t, db, "C001", "Oldest", now.Add(-2*time.Hour))
	testutil.CreateTestClient(t, db, "C003", "Newest", now)
	testutil.CreateTestClient(t, db, "C002", "Middle", now.Add(-time.Hour))

	clients, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 3)
	assert.Equal(t, "Newest", clients[0].ContactName)
	assert.Equal(t, "Middle", clients[1].ContactName)
	assert.Equal(t, "Oldest", clients[2].ContactName)
}
