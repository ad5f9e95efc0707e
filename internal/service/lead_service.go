package service

import (
	"context"
	"strings"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// LeadService manages leads
type LeadService = EntityService[domain.Lead, *domain.Lead]

// NewLeadService creates a new LeadService
func NewLeadService(repo *repository.LeadRepository, logger *zap.Logger) *LeadService {
	return NewEntityService[domain.Lead]("lead", repo, EntityServiceConfig[*domain.Lead]{
		Hooks: EntityHooks[*domain.Lead]{
			BeforeCreate: func(_ context.Context, _ *auth.UserContext, l *domain.Lead) error {
				if l.Status == "" {
					l.Status = domain.LeadStatusNew
				}
				l.ContactEmail = strings.ToLower(strings.TrimSpace(l.ContactEmail))
				l.AssignedToName = nil
				return nil
			},
			BeforeUpdate: func(_ context.Context, _ *auth.UserContext, l, existing *domain.Lead) error {
				if l.Status == "" {
					l.Status = existing.Status
				}
				l.ContactEmail = strings.ToLower(strings.TrimSpace(l.ContactEmail))
				l.AssignedToName = nil
				return nil
			},
		},
	}, logger)
}
