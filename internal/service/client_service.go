package service

import (
	"context"
	"strings"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// ClientService manages clients; new clients get the next C code
type ClientService = EntityService[domain.Client, *domain.Client]

// NewClientService creates a new ClientService
func NewClientService(repo *repository.ClientRepository, codes *CodeGenerator, logger *zap.Logger) *ClientService {
	return NewEntityService[domain.Client]("client", repo, EntityServiceConfig[*domain.Client]{
		Codes:    codes,
		CodeSpec: &ClientCodes,
		Hooks: EntityHooks[*domain.Client]{
			BeforeCreate: func(_ context.Context, _ *auth.UserContext, c *domain.Client) error {
				normalizeClient(c)
				return nil
			},
			BeforeUpdate: func(_ context.Context, _ *auth.UserContext, c, _ *domain.Client) error {
				normalizeClient(c)
				return nil
			},
		},
	}, logger)
}

func normalizeClient(c *domain.Client) {
	c.ContactName = strings.TrimSpace(c.ContactName)
	c.ContactEmail = strings.ToLower(strings.TrimSpace(c.ContactEmail))
}
