package tenant

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/osse101/BrandishRaffle_Go/internal/domain"
	"github.com/osse101/BrandishRaffle_Go/internal/logger"
	"github.com/osse101/BrandishRaffle_Go/internal/repository"
)

// Defaults are the settings a tenant receives when it is first seen
type Defaults struct {
	WatchtimeRate int64
	GiftedSubRate int64
	WagerRate     int64
	WagerUnit     int64
	AutoDraw      bool
}

// Service manages per-tenant raffle configuration
type Service interface {
	Get(ctx context.Context, tenantID string) (*domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)

	// Ensure registers the tenant with default settings if it does not exist yet
	Ensure(ctx context.Context, tenantID string) (*domain.Tenant, error)

	// UpdateSettings replaces a tenant's rates and wager configuration
	UpdateSettings(ctx context.Context, t domain.Tenant) (*domain.Tenant, error)
}

type service struct {
	repo     repository.Tenant
	defaults Defaults
}

// NewService creates a new tenant service
func NewService(repo repository.Tenant, defaults Defaults) Service {
	return &service{repo: repo, defaults: defaults}
}

func (s *service) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	return s.repo.GetTenant(ctx, tenantID)
}

func (s *service) List(ctx context.Context) ([]domain.Tenant, error) {
	return s.repo.ListTenants(ctx)
}

func (s *service) Ensure(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}

	err := s.repo.EnsureTenant(ctx, domain.Tenant{
		ID:            tenantID,
		DisplayName:   tenantID,
		WatchtimeRate: s.defaults.WatchtimeRate,
		GiftedSubRate: s.defaults.GiftedSubRate,
		WagerRate:     s.defaults.WagerRate,
		WagerUnit:     s.defaults.WagerUnit,
		AutoDraw:      s.defaults.AutoDraw,
	})
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToEnsureTenant, err)
	}

	t, err := s.repo.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Debug(LogMsgTenantRegistered, "tenant_id", tenantID)
	return t, nil
}

func (s *service) UpdateSettings(ctx context.Context, t domain.Tenant) (*domain.Tenant, error) {
	if err := validateSettings(t); err != nil {
		return nil, err
	}
	t.WagerCampaignCodes = NormalizeCampaignCodes(t.WagerCampaignCodes)
	if t.DisplayName == "" {
		t.DisplayName = t.ID
	}

	saved, err := s.repo.UpsertTenant(ctx, t)
	if err != nil {
		return nil, fmt.Errorf(ErrContextFailedToSaveTenant, err)
	}

	logger.FromContext(ctx).Info(LogMsgSettingsUpdated,
		"tenant_id", saved.ID,
		"watchtime_rate", saved.WatchtimeRate,
		"gifted_sub_rate", saved.GiftedSubRate,
		"wager_rate", saved.WagerRate,
		"wager_unit", saved.WagerUnit,
		"wager_poll_enabled", saved.WagerPollEnabled)
	return saved, nil
}

func validateSettings(t domain.Tenant) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: tenant id is required", domain.ErrInvalidInput)
	}
	if t.WatchtimeRate < 0 || t.GiftedSubRate < 0 || t.WagerRate < 0 {
		return fmt.Errorf("%w: rates must not be negative", domain.ErrInvalidInput)
	}
	if t.WagerUnit <= 0 {
		return fmt.Errorf("%w: wager unit must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// NormalizeCampaignCodes trims, case-folds and de-duplicates campaign codes.
// Entries may themselves be comma separated lists.
func NormalizeCampaignCodes(codes []string) []string {
	fold := cases.Fold()
	seen := make(map[string]bool)
	out := make([]string, 0, len(codes))
	for _, raw := range codes {
		for _, part := range strings.Split(raw, CampaignCodeSeparator) {
			code := fold.String(strings.TrimSpace(part))
			if code == "" || seen[code] {
				continue
			}
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}
