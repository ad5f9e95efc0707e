package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/datawarehouse"
	"github.com/ledgerline/crm-api/internal/domain"
	"github.com/ledgerline/crm-api/internal/repository"
	"go.uber.org/zap"
)

// VendorService manages vendors; new vendors get the next V code
type VendorService struct {
	*EntityService[domain.Vendor, *domain.Vendor]
	repo   *repository.VendorRepository
	erp    *datawarehouse.Client
	logger *zap.Logger
}

// NewVendorService creates a new VendorService. erp may be nil when the
// data warehouse is disabled.
func NewVendorService(repo *repository.VendorRepository, codes *CodeGenerator, erp *datawarehouse.Client, logger *zap.Logger) *VendorService {
	entity := NewEntityService[domain.Vendor]("vendor", repo, EntityServiceConfig[*domain.Vendor]{
		Codes:    codes,
		CodeSpec: &VendorCodes,
		Hooks: EntityHooks[*domain.Vendor]{
			BeforeCreate: func(_ context.Context, _ *auth.UserContext, v *domain.Vendor) error {
				if v.Status == "" {
					v.Status = domain.VendorStatusActive
				}
				normalizeGST(v)
				return nil
			},
			BeforeUpdate: func(_ context.Context, _ *auth.UserContext, v, existing *domain.Vendor) error {
				if v.Status == "" {
					v.Status = existing.Status
				}
				normalizeGST(v)
				return nil
			},
		},
	}, logger)

	return &VendorService{EntityService: entity, repo: repo, erp: erp, logger: logger}
}

func normalizeGST(v *domain.Vendor) {
	if v.GSTNumber == nil {
		return
	}
	gst := strings.ToUpper(strings.TrimSpace(*v.GSTNumber))
	if gst == "" {
		v.GSTNumber = nil
		return
	}
	v.GSTNumber = &gst
}

// ERPCandidates lists ERP suppliers whose GST number is not yet registered as a vendor
func (s *VendorService) ERPCandidates(ctx context.Context) ([]domain.ERPVendor, error) {
	if s.erp == nil {
		return nil, fmt.Errorf("%w: data warehouse is not enabled", ErrUnavailable)
	}

	erpVendors, err := s.erp.GetERPVendors(ctx)
	if err != nil {
		s.logger.Error("failed to read ERP vendors", zap.Error(err))
		return nil, fmt.Errorf("failed to read ERP vendors: %w", err)
	}

	registered, err := s.repo.GSTNumbers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read vendor GST numbers: %w", err)
	}

	candidates := make([]domain.ERPVendor, 0, len(erpVendors))
	for _, v := range erpVendors {
		if v.GSTNumber != nil {
			if _, ok := registered[strings.ToUpper(strings.TrimSpace(*v.GSTNumber))]; ok {
				continue
			}
		}
		candidates = append(candidates, v)
	}
	return candidates, nil
}
